// Package safety guards dispatch against recalled or expired lots.
package safety

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"github.com/andresuchdata/pirs/internal/domain"
)

// Gate is a set of blocked lot ids. Lots are only ever added. A lot that was
// never blocked is reported safe.
type Gate struct {
	mu   sync.RWMutex
	lots map[string]domain.BlockedLot
}

func NewGate() *Gate {
	return &Gate{lots: make(map[string]domain.BlockedLot)}
}

// Block adds a lot to the set. It returns false if the lot was already blocked.
func (g *Gate) Block(lot domain.BlockedLot) (bool, error) {
	lot.LotID = strings.TrimSpace(lot.LotID)
	if lot.LotID == "" {
		return false, domain.Invalidf("lot id is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.lots[lot.LotID]; ok {
		return false, nil
	}
	g.lots[lot.LotID] = lot
	return true, nil
}

// IsSafe reports whether lotID may ship.
func (g *Gate) IsSafe(lotID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, blocked := g.lots[strings.TrimSpace(lotID)]
	return !blocked
}

// Lot returns the blocked lot record for lotID.
func (g *Gate) Lot(lotID string) (domain.BlockedLot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	lot, ok := g.lots[strings.TrimSpace(lotID)]
	return lot, ok
}

// List returns every blocked lot sorted by id.
func (g *Gate) List() []domain.BlockedLot {
	g.mu.RLock()
	out := make([]domain.BlockedLot, 0, len(g.lots))
	for _, lot := range g.lots {
		out = append(out, lot)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LotID < out[j].LotID })
	return out
}

func (g *Gate) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.lots)
}

// Buckets spreads the blocked ids over n hash buckets for visualization.
func (g *Gate) Buckets(n int) []domain.Bucket {
	if n <= 0 {
		n = 1
	}
	buckets := make([]domain.Bucket, n)
	for i := range buckets {
		buckets[i] = domain.Bucket{Index: i, Items: []string{}}
	}

	for _, lot := range g.List() {
		h := fnv.New32a()
		_, _ = h.Write([]byte(lot.LotID))
		i := int(h.Sum32() % uint32(n))
		buckets[i].Items = append(buckets[i].Items, lot.LotID)
	}
	return buckets
}
