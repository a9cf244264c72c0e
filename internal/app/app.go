// Package app wires configuration into the long-lived services shared by the
// server and the command line tools.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pirs/internal/api"
	"github.com/andresuchdata/pirs/internal/cache"
	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/engine/audit"
	"github.com/andresuchdata/pirs/internal/engine/dispatch"
	"github.com/andresuchdata/pirs/internal/engine/safety"
	"github.com/andresuchdata/pirs/internal/engine/scoring"
	"github.com/andresuchdata/pirs/internal/engine/stability"
	"github.com/andresuchdata/pirs/internal/repository/sqlstore"
	"github.com/andresuchdata/pirs/internal/seed"
	"github.com/andresuchdata/pirs/internal/service"
)

type App struct {
	Config *config.Config
	DB     *sqlstore.DB
	Redis  *redis.Client
	Stores seed.Stores

	Inventory  *service.InventoryService
	Dispatch   *service.DispatchService
	Audit      *service.AuditService
	Safety     *service.SafetyService
	Reconciler *service.Reconciler
}

// ScoringModel builds the urgency model from the engine settings.
func ScoringModel(cfg config.EngineConfig) *scoring.Model {
	return scoring.NewModel(cfg.Sentinel, cfg.Precision)
}

// StabilityBand builds the pivot band, falling back to the default band when
// the configured one is empty or inverted.
func StabilityBand(cfg config.EngineConfig) stability.Band {
	band := stability.Band{Low: cfg.PivotLow, High: cfg.PivotHigh, Target: cfg.PivotTarget}
	if band.High <= 0 || band.Low > band.High {
		return stability.DefaultBand
	}
	if band.Target < band.Low || band.Target > band.High {
		band.Target = (band.Low + band.High) / 2
	}
	return band
}

// DispatchScorer builds the dispatch scorer; tiers left unset keep their
// default bonus.
func DispatchScorer(cfg config.EngineConfig) dispatch.Scorer {
	scorer := dispatch.DefaultScorer()
	if cfg.BaseScore > 0 {
		scorer.Base = cfg.BaseScore
	}
	for tier, bonus := range cfg.TierBonus {
		if bonus > 0 {
			scorer.TierBonus[tier] = bonus
		}
	}
	if cfg.ExpiryThreshold > 0 {
		scorer.ExpiryThreshold = cfg.ExpiryThreshold
	}
	if cfg.ExpiryBonus > 0 {
		scorer.ExpiryBonus = cfg.ExpiryBonus
	}
	return scorer
}

// Build opens the database, runs migrations and wires the services. Redis
// is optional: without it rankings are not cached and the audit cursor lives
// in memory.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := sqlstore.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{Config: cfg, DB: db}

	rankingCache := cache.NewNoopRankingCache()
	cursors := cache.NewMemoryCursorStore()
	client, err := cache.NewClient(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("app: redis unavailable, caching disabled")
	} else if client != nil {
		a.Redis = client
		rankingCache = cache.NewRankingCache(client, cfg.Cache)
		cursors = cache.NewCursorStore(client)
	}

	a.Stores = seed.Stores{
		Products: sqlstore.NewProductRepository(db),
		Sales:    sqlstore.NewSalesRepository(db),
		Orders:   sqlstore.NewOrderRepository(db),
		Lots:     sqlstore.NewLotRepository(db),
	}

	gate := safety.NewGate()
	a.Inventory = service.NewInventoryService(
		a.Stores.Products,
		a.Stores.Sales,
		ScoringModel(cfg.Engine),
		StabilityBand(cfg.Engine),
		rankingCache,
	)
	a.Dispatch = service.NewDispatchService(a.Stores.Orders, a.Inventory, dispatch.NewQueue(DispatchScorer(cfg.Engine)), gate)
	a.Audit = service.NewAuditService(audit.NewRotor(), a.Inventory, cursors, cfg.Engine.AuditBatchSize)
	a.Safety = service.NewSafetyService(gate, a.Stores.Lots)
	a.Reconciler = service.NewReconciler(a.Dispatch, cfg.Engine.ReconcileInterval)

	return a, nil
}

// Restore reloads the blocked-lot gate and the dispatch queue from the store.
func (a *App) Restore(ctx context.Context) error {
	if _, err := a.Safety.Load(ctx, a.Config.Engine.BlockedLots); err != nil {
		return fmt.Errorf("load blocked lots: %w", err)
	}
	if _, err := a.Dispatch.Restore(ctx); err != nil {
		return fmt.Errorf("restore dispatch queue: %w", err)
	}
	return nil
}

// Services exposes the wired services to the HTTP layer.
func (a *App) Services() *api.Services {
	return &api.Services{
		Inventory: a.Inventory,
		Dispatch:  a.Dispatch,
		Audit:     a.Audit,
		Safety:    a.Safety,
		DB:        a.DB,
	}
}

func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("app: closing redis")
		}
	}
	return a.DB.Close()
}
