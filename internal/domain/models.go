// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item tracked in the warehouse
type Product struct {
	SKU          string          `json:"sku" db:"sku"`
	Name         string          `json:"name" db:"name"`
	Stock        int             `json:"current_stock" db:"current_stock"`
	LeadTimeDays int             `json:"lead_time_days" db:"lead_time_days"`
	UnitCost     decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	Price        decimal.Decimal `json:"price" db:"price"`
}

// Validate rejects products that would corrupt scoring or stock arithmetic.
func (p Product) Validate() error {
	if p.SKU == "" {
		return Invalidf("sku is required")
	}
	if p.Stock < 0 {
		return Invalidf("stock for %s must not be negative", p.SKU)
	}
	if p.LeadTimeDays < 0 {
		return Invalidf("lead time for %s must not be negative", p.SKU)
	}
	if p.UnitCost.IsNegative() || p.Price.IsNegative() {
		return Invalidf("cost and price for %s must not be negative", p.SKU)
	}
	return nil
}

// ProductSnapshot is a read-only view of the catalog keyed by SKU,
// taken once per engine invocation.
type ProductSnapshot map[string]Product

// Product looks up a SKU in the snapshot.
func (s ProductSnapshot) Product(sku string) (Product, bool) {
	p, ok := s[sku]
	return p, ok
}

// SalesObservation represents quantity sold for a SKU on a given day
type SalesObservation struct {
	SKU          string    `json:"sku" db:"sku"`
	QuantitySold int       `json:"qty_sold" db:"qty_sold"`
	SaleDate     time.Time `json:"sale_date" db:"sale_date"`
}

// UrgencyScore is the estimated days of stock remaining for a SKU
type UrgencyScore struct {
	SKU           string  `json:"sku"`
	DaysRemaining float64 `json:"days_remaining"`
}

// Customer tiers. Higher tiers earn a larger dispatch bonus.
const (
	TierStandard = 1
	TierVIP      = 2
	TierPriority = 3
)

// TierLabel returns a display label for a customer tier.
func TierLabel(tier int) string {
	switch tier {
	case TierVIP:
		return "VIP"
	case TierPriority:
		return "PRIORITY"
	default:
		return "STD"
	}
}

// Order represents a customer shipment request
type Order struct {
	ID            string          `json:"order_id" db:"order_id"`
	Customer      string          `json:"customer" db:"customer"`
	Tier          int             `json:"customer_tier" db:"customer_tier"`
	OrderDate     time.Time       `json:"order_date" db:"order_date"`
	SKU           string          `json:"sku" db:"sku"`
	ProductName   string          `json:"product_name" db:"product_name"`
	Quantity      int             `json:"qty_requested" db:"qty_requested"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        OrderStatus     `json:"status" db:"status"`
	BlockedReason string          `json:"blocked_reason,omitempty" db:"blocked_reason"`

	// DaysRemainingAtEnqueue is the urgency of the ordered SKU when the order
	// entered the dispatch queue. It is never persisted.
	DaysRemainingAtEnqueue float64 `json:"days_remaining" db:"-"`
}

// Validate checks the caller contract for a new order.
func (o Order) Validate() error {
	if o.ID == "" {
		return Invalidf("order id is required")
	}
	if o.SKU == "" {
		return Invalidf("sku is required for order %s", o.ID)
	}
	if o.Tier < TierStandard || o.Tier > TierPriority {
		return Invalidf("customer tier %d for order %s is outside 1-3", o.Tier, o.ID)
	}
	if o.Quantity <= 0 {
		return Invalidf("quantity for order %s must be positive", o.ID)
	}
	return nil
}

// BlockedLot is a recalled or expired batch that must not ship
type BlockedLot struct {
	LotID      string     `json:"lot_id" db:"lot_id"`
	SKU        string     `json:"sku" db:"sku"`
	Reason     string     `json:"reason" db:"reason"`
	Recalled   bool       `json:"is_recalled" db:"is_recalled"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
}
