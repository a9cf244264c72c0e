package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/repository/sqlstore"
)

const sampleCatalog = `
products:
  - sku: MED-001
    name: Saline Solution 500ml
    current_stock: 40
    lead_time_days: 4
    unit_cost: "1.10"
    price: "2.50"
    sales:
      - {date: 2024-05-01, qty: 8}
      - {date: 2024-05-02, qty: 12}
  - sku: MED-002
    name: Nitrile Gloves
    current_stock: 500
    lead_time_days: 7
    unit_cost: "0.05"
    price: "0.20"
orders:
  - order_id: ORD-SEED-1
    customer: City Clinic
    customer_tier: 2
    sku: MED-001
    qty: 4
  - order_id: ORD-SEED-2
    sku: MED-002
    qty: 100
    status: blocked
    blocked_reason: credit hold
    order_date: 2024-05-03
lots:
  - lot_id: LOT-A1
    sku: MED-001
    recalled: true
    reason: contamination
  - lot_id: LOT-B7
    sku: MED-002
    expiry_date: 2024-01-31
`

func newStores(t *testing.T) Stores {
	t.Helper()
	db, err := sqlstore.Open(&config.DatabaseConfig{
		Driver:     sqlstore.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "seed.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return Stores{
		Products: sqlstore.NewProductRepository(db),
		Sales:    sqlstore.NewSalesRepository(db),
		Orders:   sqlstore.NewOrderRepository(db),
		Lots:     sqlstore.NewLotRepository(db),
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, c.Products, 2)
	assert.Len(t, c.Products[0].Sales, 2)
	assert.Len(t, c.Orders, 2)
	assert.Len(t, c.Lots, 2)

	p, err := c.Products[0].Product()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.50").Equal(p.Price))

	_, err = Parse(strings.NewReader("products:\n  - sku: X\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")

	empty, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Products)
}

func TestEntryValidation(t *testing.T) {
	_, err := ProductEntry{SKU: "X", Stock: -1}.Product()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ProductEntry{SKU: "X", Price: "abc"}.Product()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ProductEntry{SKU: "X", Sales: []SalesEntry{{Date: "yesterday", Qty: 1}}}.Observations()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = OrderEntry{ID: "O", SKU: "X", Qty: 1, Status: "LOST"}.Order(domain.Product{SKU: "X"}, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = LotEntry{}.Lot()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	stores := newStores(t)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))
	c, err := LoadFile(path)
	require.NoError(t, err)

	res, err := Apply(ctx, c, stores, now)
	require.NoError(t, err)
	assert.Equal(t, &Result{Products: 2, Sales: 2, Orders: 2, Lots: 2}, res)

	history, err := stores.Sales.History(ctx, "MED-001")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	vip, err := stores.Orders.Get(ctx, "ORD-SEED-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, vip.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(vip.TotalAmount))
	assert.True(t, now.Equal(vip.OrderDate))

	held, err := stores.Orders.Get(ctx, "ORD-SEED-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, held.Status)
	assert.Equal(t, domain.TierStandard, held.Tier)

	blocked, err := stores.Lots.Blocked(ctx, now)
	require.NoError(t, err)
	require.Len(t, blocked, 2)
	assert.Equal(t, "contamination", blocked[0].Reason)
	assert.Equal(t, "expired", blocked[1].Reason)

	again, err := Apply(ctx, c, stores, now)
	require.NoError(t, err)
	assert.Equal(t, 4, again.Skipped)
	assert.Equal(t, 0, again.Sales)

	history, err = stores.Sales.History(ctx, "MED-001")
	require.NoError(t, err)
	assert.Len(t, history, 2, "re-seeding does not duplicate sales")
}

func TestApplyRejectsOrdersForUnknownProducts(t *testing.T) {
	c := &Catalog{Orders: []OrderEntry{{ID: "ORD-X", SKU: "NOPE", Qty: 1}}}
	_, err := Apply(context.Background(), c, newStores(t), time.Now())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
