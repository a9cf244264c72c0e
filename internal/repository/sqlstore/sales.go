package sqlstore

import (
	"context"
	"fmt"

	"github.com/andresuchdata/pirs/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) History(ctx context.Context, sku string) ([]int, error) {
	query := r.db.Rebind(`
		SELECT qty_sold
		FROM sales_history
		WHERE sku = ?
		ORDER BY sale_date
	`)

	qty := []int{}
	if err := r.db.SelectContext(ctx, &qty, query, sku); err != nil {
		return nil, fmt.Errorf("failed to get sales history for %s: %w", sku, err)
	}
	return qty, nil
}

func (r *salesRepository) AllHistory(ctx context.Context) (map[string][]int, error) {
	var rows []domain.SalesObservation
	query := `SELECT sku, qty_sold, sale_date FROM sales_history ORDER BY sku, sale_date`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get sales history: %w", err)
	}

	history := make(map[string][]int)
	for _, row := range rows {
		history[row.SKU] = append(history[row.SKU], row.QuantitySold)
	}
	return history, nil
}

func (r *salesRepository) Record(ctx context.Context, obs domain.SalesObservation) error {
	if obs.QuantitySold < 0 {
		return domain.Invalidf("sales quantity for %s must not be negative", obs.SKU)
	}

	query := r.db.Rebind(`INSERT INTO sales_history (sku, qty_sold, sale_date) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, obs.SKU, obs.QuantitySold, obs.SaleDate.UTC()); err != nil {
		return fmt.Errorf("failed to record sale for %s: %w", obs.SKU, err)
	}
	return nil
}
