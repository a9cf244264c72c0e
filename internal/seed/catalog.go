// Package seed loads YAML catalogs of products, sales history, orders and
// lots into the store.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/andresuchdata/pirs/internal/domain"
)

const dateLayout = "2006-01-02"

type Catalog struct {
	Products []ProductEntry `yaml:"products"`
	Orders   []OrderEntry   `yaml:"orders"`
	Lots     []LotEntry     `yaml:"lots"`
}

type ProductEntry struct {
	SKU          string       `yaml:"sku"`
	Name         string       `yaml:"name"`
	Stock        int          `yaml:"current_stock"`
	LeadTimeDays int          `yaml:"lead_time_days"`
	UnitCost     string       `yaml:"unit_cost"`
	Price        string       `yaml:"price"`
	Sales        []SalesEntry `yaml:"sales"`
}

type SalesEntry struct {
	Date string `yaml:"date"`
	Qty  int    `yaml:"qty"`
}

type OrderEntry struct {
	ID            string `yaml:"order_id"`
	Customer      string `yaml:"customer"`
	Tier          int    `yaml:"customer_tier"`
	SKU           string `yaml:"sku"`
	Qty           int    `yaml:"qty"`
	OrderDate     string `yaml:"order_date"`
	Status        string `yaml:"status"`
	BlockedReason string `yaml:"blocked_reason"`
}

type LotEntry struct {
	LotID      string `yaml:"lot_id"`
	SKU        string `yaml:"sku"`
	Reason     string `yaml:"reason"`
	Recalled   bool   `yaml:"recalled"`
	ExpiryDate string `yaml:"expiry_date"`
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a catalog and rejects unknown keys.
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return &c, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, raw)
}

// Product converts the entry into a validated domain product.
func (p ProductEntry) Product() (domain.Product, error) {
	cost, err := parseMoney(p.UnitCost)
	if err != nil {
		return domain.Product{}, domain.Invalidf("unit_cost for %s: %v", p.SKU, err)
	}
	price, err := parseMoney(p.Price)
	if err != nil {
		return domain.Product{}, domain.Invalidf("price for %s: %v", p.SKU, err)
	}

	out := domain.Product{
		SKU:          strings.TrimSpace(p.SKU),
		Name:         strings.TrimSpace(p.Name),
		Stock:        p.Stock,
		LeadTimeDays: p.LeadTimeDays,
		UnitCost:     cost,
		Price:        price,
	}
	if out.Name == "" {
		out.Name = out.SKU
	}
	return out, out.Validate()
}

// Observations converts the sales entries for the product.
func (p ProductEntry) Observations() ([]domain.SalesObservation, error) {
	out := make([]domain.SalesObservation, 0, len(p.Sales))
	for _, s := range p.Sales {
		day, err := parseDate(s.Date)
		if err != nil {
			return nil, domain.Invalidf("sale date %q for %s", s.Date, p.SKU)
		}
		if s.Qty < 0 {
			return nil, domain.Invalidf("sale quantity for %s must not be negative", p.SKU)
		}
		out = append(out, domain.SalesObservation{SKU: p.SKU, QuantitySold: s.Qty, SaleDate: day})
	}
	return out, nil
}

// Order converts the entry, pricing it from the catalog product. An empty
// status means PENDING.
func (o OrderEntry) Order(product domain.Product, fallbackDate time.Time) (domain.Order, error) {
	status := domain.StatusPending
	if o.Status != "" {
		parsed, ok := domain.ParseOrderStatus(o.Status)
		if !ok {
			return domain.Order{}, domain.Invalidf("unknown status %q for order %s", o.Status, o.ID)
		}
		status = parsed
	}

	placed := fallbackDate
	if o.OrderDate != "" {
		t, err := parseDate(o.OrderDate)
		if err != nil {
			return domain.Order{}, domain.Invalidf("order date %q for %s", o.OrderDate, o.ID)
		}
		placed = t
	}

	tier := o.Tier
	if tier == 0 {
		tier = domain.TierStandard
	}

	out := domain.Order{
		ID:            strings.TrimSpace(o.ID),
		Customer:      o.Customer,
		Tier:          tier,
		OrderDate:     placed,
		SKU:           product.SKU,
		ProductName:   product.Name,
		Quantity:      o.Qty,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(o.Qty))),
		Status:        status,
		BlockedReason: o.BlockedReason,
	}
	return out, out.Validate()
}

// Lot converts the entry into a lot record.
func (l LotEntry) Lot() (domain.BlockedLot, error) {
	out := domain.BlockedLot{
		LotID:    strings.TrimSpace(l.LotID),
		SKU:      strings.TrimSpace(l.SKU),
		Reason:   l.Reason,
		Recalled: l.Recalled,
	}
	if out.LotID == "" {
		return out, domain.Invalidf("lot id is required")
	}
	if l.ExpiryDate != "" {
		t, err := parseDate(l.ExpiryDate)
		if err != nil {
			return out, domain.Invalidf("expiry date %q for lot %s", l.ExpiryDate, out.LotID)
		}
		out.ExpiryDate = &t
	}
	return out, nil
}
