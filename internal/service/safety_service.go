package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/engine/safety"
	"github.com/andresuchdata/pirs/internal/repository"
)

const hashBuckets = 8

// SafetyService keeps the in-memory blocked-lot gate and the lot store in step.
type SafetyService struct {
	gate *safety.Gate
	lots repository.LotRepository
	now  func() time.Time
}

func NewSafetyService(gate *safety.Gate, lots repository.LotRepository) *SafetyService {
	return &SafetyService{gate: gate, lots: lots, now: time.Now}
}

// Load fills the gate with recalled and expired lots from the store plus any
// lot ids configured at startup.
func (s *SafetyService) Load(ctx context.Context, configured []string) (int, error) {
	stored, err := s.lots.Blocked(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for _, id := range configured {
		stored = append(stored, domain.BlockedLot{LotID: id, Reason: "configured", Recalled: true})
	}

	added := 0
	for _, lot := range stored {
		ok, err := s.gate.Block(lot)
		if err != nil {
			log.Warn().Err(err).Msg("safety: skipping invalid lot")
			continue
		}
		if ok {
			added++
		}
	}

	log.Info().Int("blocked_lots", s.gate.Len()).Msg("safety: gate loaded")
	return added, nil
}

// Block records a recalled lot. Blocking a known lot again is not an error.
func (s *SafetyService) Block(ctx context.Context, lot domain.BlockedLot) (bool, error) {
	lot.LotID = strings.TrimSpace(lot.LotID)
	if lot.LotID == "" {
		return false, domain.Invalidf("lot id is required")
	}
	if lot.Reason == "" {
		lot.Reason = "recalled"
	}
	lot.Recalled = true

	if err := s.lots.Block(ctx, lot); err != nil {
		return false, err
	}
	return s.gate.Block(lot)
}

func (s *SafetyService) IsSafe(lotID string) bool {
	return s.gate.IsSafe(lotID)
}

func (s *SafetyService) List() []domain.BlockedLot {
	return s.gate.List()
}

func (s *SafetyService) HashSetState() *domain.HashSetState {
	lots := s.gate.List()
	ids := make([]string, len(lots))
	for i, lot := range lots {
		ids[i] = lot.LotID
	}

	return &domain.HashSetState{
		Type:        "hash-set",
		Description: "Blocked lots: a lot is safe unless it was blocked",
		Complexity: map[string]string{
			"block":   "O(1)",
			"is_safe": "O(1)",
		},
		BlockedLots: ids,
		Buckets:     s.gate.Buckets(hashBuckets),
		Size:        len(ids),
	}
}
