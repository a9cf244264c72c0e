package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/pirs/internal/domain"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

const productColumns = `sku, name, current_stock, lead_time_days, unit_cost, price`

func (r *productRepository) Snapshot(ctx context.Context) (domain.ProductSnapshot, error) {
	var products []domain.Product
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sku`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	snapshot := make(domain.ProductSnapshot, len(products))
	for _, p := range products {
		snapshot[p.SKU] = p
	}
	return snapshot, nil
}

func (r *productRepository) Get(ctx context.Context, sku string) (*domain.Product, error) {
	var p domain.Product
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE sku = ?`)
	if err := r.db.GetContext(ctx, &p, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product %s: %w", sku, err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query, p.SKU, p.Name, p.Stock, p.LeadTimeDays, p.UnitCost, p.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicateProduct)
		}
		return fmt.Errorf("failed to create product %s: %w", p.SKU, err)
	}
	return nil
}

func (r *productRepository) UpdateStock(ctx context.Context, sku string, stock int) error {
	if stock < 0 {
		return domain.Invalidf("stock for %s must not be negative", sku)
	}

	query := r.db.Rebind(`UPDATE products SET current_stock = ? WHERE sku = ?`)
	res, err := r.db.ExecContext(ctx, query, stock, sku)
	if err != nil {
		return fmt.Errorf("failed to update stock for %s: %w", sku, err)
	}
	return expectOne(res, fmt.Errorf("sku %s: %w", sku, domain.ErrProductNotFound))
}

func (r *productRepository) Delete(ctx context.Context, sku string) error {
	query := r.db.Rebind(`DELETE FROM products WHERE sku = ?`)
	res, err := r.db.ExecContext(ctx, query, sku)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", sku, err)
	}
	return expectOne(res, fmt.Errorf("sku %s: %w", sku, domain.ErrProductNotFound))
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation matches the duplicate key messages of postgres and sqlite.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
