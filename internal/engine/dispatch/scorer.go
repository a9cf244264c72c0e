package dispatch

import "github.com/andresuchdata/pirs/internal/domain"

// Priority reasons shown next to a queued order.
const (
	ReasonExpiry   = "Expiry Risk"
	ReasonPriority = "Priority"
	ReasonVIP      = "VIP"
	ReasonStandard = "Standard"
)

// Scorer computes the composite dispatch score of an order. The score is
// fixed at enqueue time.
type Scorer struct {
	Base            int
	TierBonus       map[int]int
	ExpiryThreshold float64
	ExpiryBonus     int
}

// DefaultScorer puts VIP fifty points above standard and lets any order for
// stock that expires within a week jump the line.
func DefaultScorer() Scorer {
	return Scorer{
		Base: 10,
		TierBonus: map[int]int{
			domain.TierStandard: 60,
			domain.TierVIP:      110,
			domain.TierPriority: 160,
		},
		ExpiryThreshold: 7,
		ExpiryBonus:     500,
	}
}

// Score returns base + tier bonus + expiry bonus and the dominant reason.
func (s Scorer) Score(tier int, daysRemaining float64) (int, string) {
	score := s.Base + s.TierBonus[tier]

	reason := ReasonStandard
	switch tier {
	case domain.TierVIP:
		reason = ReasonVIP
	case domain.TierPriority:
		reason = ReasonPriority
	}

	if daysRemaining < s.ExpiryThreshold {
		score += s.ExpiryBonus
		reason = ReasonExpiry
	}
	return score, reason
}
