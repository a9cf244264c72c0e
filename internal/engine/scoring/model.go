package scoring

import (
	"math"

	"github.com/andresuchdata/pirs/internal/domain"
)

const (
	// DefaultSentinel is returned when a SKU has no sales signal. It stands in
	// for an effectively infinite runway while keeping scores totally ordered.
	DefaultSentinel = 999.0

	// DefaultPrecision is the number of decimals kept for display stability.
	DefaultPrecision = 2
)

// Model computes days-of-stock-remaining for a SKU from its stock level
// and historical sales velocity.
type Model struct {
	sentinel  float64
	precision int
}

// NewModel creates a scoring model. A non-positive sentinel falls back to
// DefaultSentinel and a negative precision to zero decimals.
func NewModel(sentinel float64, precision int) *Model {
	if sentinel <= 0 {
		sentinel = DefaultSentinel
	}
	if precision < 0 {
		precision = 0
	}
	return &Model{sentinel: sentinel, precision: precision}
}

// Default returns a model with the default sentinel and precision.
func Default() *Model {
	return NewModel(DefaultSentinel, DefaultPrecision)
}

// Sentinel returns the score used for SKUs without sales.
func (m *Model) Sentinel() float64 {
	return m.sentinel
}

// Score returns stock / mean(sales), rounded to the model precision, or the
// sentinel when there is no history or the average is zero.
func (m *Model) Score(stock int, sales []int) (float64, error) {
	if stock < 0 {
		return 0, domain.Invalidf("stock must not be negative, got %d", stock)
	}
	if len(sales) == 0 {
		return m.sentinel, nil
	}

	total := 0
	for _, qty := range sales {
		if qty < 0 {
			return 0, domain.Invalidf("sales quantity must not be negative, got %d", qty)
		}
		total += qty
	}
	if total == 0 {
		return m.sentinel, nil
	}

	avg := float64(total) / float64(len(sales))
	days := roundFloat(float64(stock)/avg, m.precision)

	// A real score always ranks ahead of the no-sales sentinel.
	if days >= m.sentinel {
		days = m.sentinel - math.Pow(10, -float64(m.precision))
	}
	return days, nil
}

// ScoreProduct scores a single product.
func (m *Model) ScoreProduct(p domain.Product, sales []int) (domain.UrgencyScore, error) {
	days, err := m.Score(p.Stock, sales)
	if err != nil {
		return domain.UrgencyScore{}, err
	}
	return domain.UrgencyScore{SKU: p.SKU, DaysRemaining: days}, nil
}

// ScoreAll scores every product of a snapshot. History entries for SKUs that
// are not in the snapshot are ignored.
func (m *Model) ScoreAll(products domain.ProductSnapshot, history map[string][]int) (map[string]float64, error) {
	scores := make(map[string]float64, len(products))
	for sku, p := range products {
		days, err := m.Score(p.Stock, history[sku])
		if err != nil {
			return nil, err
		}
		scores[sku] = days
	}
	return scores, nil
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
