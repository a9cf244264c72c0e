package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/engine/dispatch"
	"github.com/andresuchdata/pirs/internal/engine/stability"
	"github.com/andresuchdata/pirs/internal/repository/sqlstore"
	"github.com/andresuchdata/pirs/internal/seed"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:     sqlstore.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "app.db"),
		},
		Engine: config.EngineConfig{
			Sentinel:          999,
			Precision:         2,
			PivotLow:          10,
			PivotHigh:         15,
			PivotTarget:       12,
			AuditBatchSize:    3,
			ReconcileInterval: time.Second,
			BlockedLots:       []string{"LOT-CFG"},
		},
	}
}

func TestStabilityBand(t *testing.T) {
	assert.Equal(t, stability.DefaultBand, StabilityBand(config.EngineConfig{}))
	assert.Equal(t, stability.DefaultBand, StabilityBand(config.EngineConfig{PivotLow: 20, PivotHigh: 5}))
	assert.Equal(t, stability.Band{Low: 20, High: 30, Target: 25}, StabilityBand(config.EngineConfig{PivotLow: 20, PivotHigh: 30, PivotTarget: 2}))
}

func TestDispatchScorer(t *testing.T) {
	scorer := DispatchScorer(config.EngineConfig{
		BaseScore: 5,
		TierBonus: map[int]int{domain.TierPriority: 300, domain.TierVIP: 0},
	})
	assert.Equal(t, 5, scorer.Base)
	assert.Equal(t, 300, scorer.TierBonus[domain.TierPriority])
	assert.Equal(t, dispatch.DefaultScorer().TierBonus[domain.TierVIP], scorer.TierBonus[domain.TierVIP])
	assert.Equal(t, 500, scorer.ExpiryBonus)
}

func TestBuildAndRestore(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Redis)

	catalog := &seed.Catalog{
		Products: []seed.ProductEntry{{SKU: "SKU-1", Name: "Bandage", Stock: 30, Price: "1.5", Sales: []seed.SalesEntry{{Date: "2024-01-01", Qty: 10}}}},
		Orders:   []seed.OrderEntry{{ID: "ORD-1", SKU: "SKU-1", Qty: 2, Tier: domain.TierVIP}},
	}
	_, err = seed.Apply(ctx, catalog, a.Stores, time.Now())
	require.NoError(t, err)

	require.NoError(t, a.Restore(ctx))
	assert.False(t, a.Safety.IsSafe("LOT-CFG"))

	queue, err := a.Dispatch.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "ORD-1", queue[0].ID)
	assert.Equal(t, 10+110+500, queue[0].PriorityScore)

	services := a.Services()
	assert.NotNil(t, services.Inventory)
	assert.Equal(t, 3, a.Audit.BatchSize())
}
