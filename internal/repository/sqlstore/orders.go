package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/pirs/internal/domain"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `order_id, customer, customer_tier, order_date, sku, product_name,
	qty_requested, total_amount, status, blocked_reason`

func (r *orderRepository) All(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	query := `SELECT ` + orderColumns + ` FROM customer_orders ORDER BY order_date DESC, order_id`
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders := []domain.Order{}
	query := r.db.Rebind(`SELECT ` + orderColumns + ` FROM customer_orders WHERE status = ? ORDER BY order_date, order_id`)
	if err := r.db.SelectContext(ctx, &orders, query, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list %s orders: %w", status, err)
	}
	return orders, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, r.db, r.db.Rebind, id)
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, rebind func(string) string, id string) (*domain.Order, error) {
	var o domain.Order
	query := rebind(`SELECT ` + orderColumns + ` FROM customer_orders WHERE order_id = ?`)
	if err := sqlx.GetContext(ctx, q, &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o domain.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Status == "" {
		o.Status = domain.StatusPending
	}

	query := r.db.Rebind(`
		INSERT INTO customer_orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.Customer, o.Tier, o.OrderDate.UTC(), o.SKU, o.ProductName,
		o.Quantity, o.TotalAmount, string(o.Status), o.BlockedReason,
	)
	if err != nil {
		return fmt.Errorf("failed to create order %s: %w", o.ID, err)
	}
	return nil
}

func (r *orderRepository) ShippedAmong(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT order_id FROM customer_orders WHERE status = ? AND order_id IN (?)`,
		string(domain.StatusShipped), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build shipped query: %w", err)
	}

	shipped := []string{}
	if err := r.db.SelectContext(ctx, &shipped, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to check shipped orders: %w", err)
	}
	return shipped, nil
}

func (r *orderRepository) Dispatch(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := getOrder(ctx, tx, tx.Rebind, id)
		if err != nil {
			return err
		}
		if o.Status != domain.StatusPending {
			return fmt.Errorf("order %s is %s: %w", id, o.Status, domain.ErrOrderNotPending)
		}

		if err := decrementStock(ctx, tx, o.SKU, o.Quantity); err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE customer_orders SET status = ? WHERE order_id = ? AND status = ?`)
		res, err := tx.ExecContext(ctx, query, string(domain.StatusShipped), id, string(domain.StatusPending))
		if err != nil {
			return fmt.Errorf("failed to mark order %s shipped: %w", id, err)
		}
		return expectOne(res, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotPending))
	})
}

func (r *orderRepository) PartialDispatch(ctx context.Context, id string, qty int) (*domain.Order, error) {
	if qty <= 0 {
		return nil, domain.Invalidf("partial quantity for %s must be positive", id)
	}

	var updated *domain.Order
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := getOrder(ctx, tx, tx.Rebind, id)
		if err != nil {
			return err
		}
		if o.Status != domain.StatusPending {
			return fmt.Errorf("order %s is %s: %w", id, o.Status, domain.ErrOrderNotPending)
		}
		if qty >= o.Quantity {
			return domain.Invalidf("partial quantity %d must be below the requested %d for %s", qty, o.Quantity, id)
		}

		if err := decrementStock(ctx, tx, o.SKU, qty); err != nil {
			return err
		}

		remaining := o.Quantity - qty
		total := o.TotalAmount
		if o.Quantity > 0 {
			total = o.TotalAmount.Div(decimal.NewFromInt(int64(o.Quantity))).
				Mul(decimal.NewFromInt(int64(remaining))).Round(2)
		}

		query := tx.Rebind(`UPDATE customer_orders SET qty_requested = ?, total_amount = ? WHERE order_id = ?`)
		if _, err := tx.ExecContext(ctx, query, remaining, total, id); err != nil {
			return fmt.Errorf("failed to reduce order %s: %w", id, err)
		}

		o.Quantity = remaining
		o.TotalAmount = total
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, reason string) error {
	if !domain.StatusPending.CanTransition(status) {
		return domain.Invalidf("orders cannot move to %s", status)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := getOrder(ctx, tx, tx.Rebind, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(status) {
			return fmt.Errorf("order %s is %s: %w", id, o.Status, domain.ErrOrderNotPending)
		}

		query := tx.Rebind(`UPDATE customer_orders SET status = ?, blocked_reason = ? WHERE order_id = ?`)
		if _, err := tx.ExecContext(ctx, query, string(status), reason, id); err != nil {
			return fmt.Errorf("failed to update order %s: %w", id, err)
		}
		return nil
	})
}

// decrementStock removes qty units only if enough stock is on hand.
func decrementStock(ctx context.Context, tx *sqlx.Tx, sku string, qty int) error {
	query := tx.Rebind(`
		UPDATE products
		SET current_stock = current_stock - ?
		WHERE sku = ? AND current_stock >= ?
	`)
	res, err := tx.ExecContext(ctx, query, qty, sku, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for %s: %w", sku, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM products WHERE sku = ?`), sku); err != nil {
		return fmt.Errorf("failed to check product %s: %w", sku, err)
	}
	if exists == 0 {
		return fmt.Errorf("sku %s: %w", sku, domain.ErrProductNotFound)
	}
	return fmt.Errorf("sku %s needs %d: %w", sku, qty, domain.ErrInsufficientStock)
}
