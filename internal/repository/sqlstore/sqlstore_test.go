package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(&config.DatabaseConfig{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "pirs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func seedProduct(t *testing.T, db *DB, sku string, stock int) {
	t.Helper()
	err := NewProductRepository(db).Create(context.Background(), domain.Product{
		SKU:          sku,
		Name:         "Product " + sku,
		Stock:        stock,
		LeadTimeDays: 5,
		UnitCost:     decimal.RequireFromString("2.50"),
		Price:        decimal.RequireFromString("4.00"),
	})
	require.NoError(t, err)
}

func seedOrder(t *testing.T, db *DB, id, sku string, qty int) {
	t.Helper()
	err := NewOrderRepository(db).Create(context.Background(), domain.Order{
		ID:          id,
		Customer:    "Clinic",
		Tier:        domain.TierStandard,
		OrderDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		SKU:         sku,
		Quantity:    qty,
		TotalAmount: decimal.NewFromInt(int64(qty) * 4),
	})
	require.NoError(t, err)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestDataSource(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: "5432", User: "app", Password: "s3cret", DBName: "pirs", SSLMode: "disable"}

	dsn, err := dataSource(DriverPGX, cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:s3cret@db:5432/pirs?sslmode=disable", dsn)

	dsn, err = dataSource(DriverPostgres, cfg)
	require.NoError(t, err)
	assert.Contains(t, dsn, "dbname=pirs")

	_, err = dataSource("mysql", cfg)
	assert.Error(t, err)
	_, err = dataSource(DriverSQLite, cfg)
	assert.Error(t, err)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProductRepository(db)

	seedProduct(t, db, "SKU001", 10)
	seedProduct(t, db, "SKU002", 0)

	snapshot, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, 10, snapshot["SKU001"].Stock)
	assert.True(t, decimal.RequireFromString("4").Equal(snapshot["SKU001"].Price))

	err = repo.Create(ctx, domain.Product{SKU: "SKU001", Name: "dup"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateProduct))

	err = repo.Create(ctx, domain.Product{SKU: "BAD", Stock: -1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	require.NoError(t, repo.UpdateStock(ctx, "SKU002", 7))
	p, err := repo.Get(ctx, "SKU002")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	assert.True(t, errors.Is(repo.UpdateStock(ctx, "GHOST", 1), domain.ErrProductNotFound))
	assert.True(t, errors.Is(repo.UpdateStock(ctx, "SKU002", -3), domain.ErrInvalidInput))

	require.NoError(t, repo.Delete(ctx, "SKU002"))
	_, err = repo.Get(ctx, "SKU002")
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "SKU002"), domain.ErrProductNotFound))
}

func TestSalesRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSalesRepository(db)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, repo.Record(ctx, domain.SalesObservation{SKU: "A", QuantitySold: 3, SaleDate: day(2)}))
	require.NoError(t, repo.Record(ctx, domain.SalesObservation{SKU: "A", QuantitySold: 1, SaleDate: day(1)}))
	require.NoError(t, repo.Record(ctx, domain.SalesObservation{SKU: "B", QuantitySold: 0, SaleDate: day(1)}))

	history, err := repo.History(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, history, "ordered by sale date")

	empty, err := repo.History(ctx, "NONE")
	require.NoError(t, err)
	assert.Empty(t, empty)

	all, err := repo.AllHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"A": {1, 3}, "B": {0}}, all)

	err = repo.Record(ctx, domain.SalesObservation{SKU: "A", QuantitySold: -1, SaleDate: day(3)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestOrderRepository_Dispatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	products := NewProductRepository(db)

	seedProduct(t, db, "SKU001", 10)
	seedOrder(t, db, "ORD-1", "SKU001", 4)
	seedOrder(t, db, "ORD-2", "SKU001", 8)

	require.NoError(t, orders.Dispatch(ctx, "ORD-1"))

	o, err := orders.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	p, _ := products.Get(ctx, "SKU001")
	assert.Equal(t, 6, p.Stock)

	err = orders.Dispatch(ctx, "ORD-1")
	assert.True(t, errors.Is(err, domain.ErrOrderNotPending))

	err = orders.Dispatch(ctx, "ORD-2")
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	o, _ = orders.Get(ctx, "ORD-2")
	assert.Equal(t, domain.StatusPending, o.Status, "failed dispatch leaves status unchanged")
	p, _ = products.Get(ctx, "SKU001")
	assert.Equal(t, 6, p.Stock)

	err = orders.Dispatch(ctx, "ORD-404")
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}

func TestOrderRepository_PartialDispatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)

	seedProduct(t, db, "SKU001", 3)
	seedOrder(t, db, "ORD-1", "SKU001", 5)

	updated, err := orders.PartialDispatch(ctx, "ORD-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)
	assert.True(t, decimal.NewFromInt(8).Equal(updated.TotalAmount))
	assert.Equal(t, domain.StatusPending, updated.Status)

	stored, _ := orders.Get(ctx, "ORD-1")
	assert.Equal(t, 2, stored.Quantity)

	_, err = orders.PartialDispatch(ctx, "ORD-1", 1)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	_, err = orders.PartialDispatch(ctx, "ORD-1", 2)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "shipping everything is a full dispatch")
}

func TestOrderRepository_StatusAndShipped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)

	seedProduct(t, db, "SKU001", 100)
	seedOrder(t, db, "ORD-1", "SKU001", 1)
	seedOrder(t, db, "ORD-2", "SKU001", 1)
	seedOrder(t, db, "ORD-3", "SKU001", 1)

	require.NoError(t, orders.Dispatch(ctx, "ORD-1"))
	require.NoError(t, orders.UpdateStatus(ctx, "ORD-2", domain.StatusBlocked, "recalled lot"))

	err := orders.UpdateStatus(ctx, "ORD-2", domain.StatusShipped, "")
	assert.True(t, errors.Is(err, domain.ErrOrderNotPending), "no reversal out of BLOCKED")
	err = orders.UpdateStatus(ctx, "ORD-3", domain.StatusPending, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	blocked, err := orders.ByStatus(ctx, domain.StatusBlocked)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "recalled lot", blocked[0].BlockedReason)

	shipped, err := orders.ShippedAmong(ctx, []string{"ORD-1", "ORD-2", "ORD-3", "ORD-404"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1"}, shipped)

	none, err := orders.ShippedAmong(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := orders.All(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, o := range all {
		ids[i] = o.ID
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, ids)
}

func TestLotRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	lots := NewLotRepository(db)

	require.NoError(t, lots.Block(ctx, domain.BlockedLot{LotID: "LOT-R", SKU: "SKU001", Reason: "supplier recall"}))
	require.NoError(t, lots.Block(ctx, domain.BlockedLot{LotID: "LOT-R", SKU: "SKU001", Reason: "recall v2"}))

	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_lots (lot_id, sku, reason, is_recalled, expiry_date) VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?)`,
		"LOT-EXP", "SKU002", "", false, past,
		"LOT-OK", "SKU002", "", false, future,
	)
	require.NoError(t, err)

	blocked, err := lots.Blocked(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, blocked, 2)

	assert.Equal(t, "LOT-EXP", blocked[0].LotID)
	assert.Equal(t, "expired", blocked[0].Reason)
	require.NotNil(t, blocked[0].ExpiryDate)
	assert.True(t, past.Equal(*blocked[0].ExpiryDate))

	assert.Equal(t, "LOT-R", blocked[1].LotID)
	assert.Equal(t, "recall v2", blocked[1].Reason)
	assert.True(t, blocked[1].Recalled)

	assert.True(t, errors.Is(lots.Block(ctx, domain.BlockedLot{}), domain.ErrInvalidInput))
}

func TestLotRepositorySave(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	lots := NewLotRepository(db)

	expiry := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, lots.Save(ctx, domain.BlockedLot{LotID: "LOT-S", SKU: "SKU001", ExpiryDate: &expiry}))

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	blocked, err := lots.Blocked(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.False(t, blocked[0].Recalled)
	assert.Equal(t, "expired", blocked[0].Reason)

	// Pushing the expiry out releases the lot.
	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, lots.Save(ctx, domain.BlockedLot{LotID: "LOT-S", SKU: "SKU001", ExpiryDate: &later}))
	blocked, err = lots.Blocked(ctx, asOf)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	assert.True(t, errors.Is(lots.Save(ctx, domain.BlockedLot{}), domain.ErrInvalidInput))
}
