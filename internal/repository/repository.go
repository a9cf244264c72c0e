// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/pirs/internal/domain"
)

// ProductRepository reads and writes the product catalog.
type ProductRepository interface {
	Snapshot(ctx context.Context) (domain.ProductSnapshot, error)
	Get(ctx context.Context, sku string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	UpdateStock(ctx context.Context, sku string, stock int) error
	Delete(ctx context.Context, sku string) error
}

// SalesRepository exposes historical sales quantities in date order.
type SalesRepository interface {
	History(ctx context.Context, sku string) ([]int, error)
	AllHistory(ctx context.Context) (map[string][]int, error)
	Record(ctx context.Context, obs domain.SalesObservation) error
}

// OrderRepository persists customer orders and their lifecycle.
type OrderRepository interface {
	All(ctx context.Context) ([]domain.Order, error)
	ByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	Create(ctx context.Context, o domain.Order) error
	// ShippedAmong returns the subset of ids whose orders are SHIPPED.
	ShippedAmong(ctx context.Context, ids []string) ([]string, error)
	// Dispatch decrements stock by the order quantity and marks the order
	// SHIPPED in one transaction.
	Dispatch(ctx context.Context, id string) error
	// PartialDispatch ships qty units and reduces the requested quantity,
	// leaving the order PENDING.
	PartialDispatch(ctx context.Context, id string, qty int) (*domain.Order, error)
	// UpdateStatus moves a PENDING order to status.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, reason string) error
}

// LotRepository stores recalled or expired lots.
type LotRepository interface {
	Blocked(ctx context.Context, asOf time.Time) ([]domain.BlockedLot, error)
	Block(ctx context.Context, lot domain.BlockedLot) error
	Save(ctx context.Context, lot domain.BlockedLot) error
}
