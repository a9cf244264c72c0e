package service

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pirs/internal/cache"
	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/engine/audit"
)

const auditCursorName = "shelves"

// AuditService hands out the next SKUs to count. The rotor lives for the
// whole process and its cursor is persisted after every call, so a restart
// resumes where the previous process stopped. SKUs removed from the catalog
// stay in the rotation.
type AuditService struct {
	mu        sync.Mutex
	rotor     *audit.Rotor
	catalog   Inventory
	cursors   cache.CursorStore
	batchSize int
	restored  bool
}

func NewAuditService(rotor *audit.Rotor, catalog Inventory, cursors cache.CursorStore, batchSize int) *AuditService {
	if batchSize <= 0 {
		batchSize = 5
	}
	if cursors == nil {
		cursors = cache.NewMemoryCursorStore()
	}
	return &AuditService{
		rotor:     rotor,
		catalog:   catalog,
		cursors:   cursors,
		batchSize: batchSize,
	}
}

func (s *AuditService) BatchSize() int {
	return s.batchSize
}

// sync registers SKUs that joined the catalog, in sorted order.
func (s *AuditService) sync(ctx context.Context) (domain.ProductSnapshot, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(snapshot))
	for sku := range snapshot {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	for _, sku := range skus {
		s.rotor.Register(sku)
	}

	if !s.restored {
		sku, ok, err := s.cursors.Load(ctx, auditCursorName)
		if err != nil {
			log.Warn().Err(err).Msg("audit: could not load cursor, starting from the head")
		} else if ok {
			s.resume(sku, skus)
		}
		s.restored = true
	}
	return snapshot, nil
}

// resume puts the cursor back on the saved SKU. When that SKU left the
// catalog the rotation continues with the next SKU in sorted order.
func (s *AuditService) resume(sku string, sorted []string) {
	if s.rotor.Seek(sku) {
		return
	}
	i := sort.SearchStrings(sorted, sku)
	if i < len(sorted) && s.rotor.Seek(sorted[i]) {
		return
	}
	s.rotor.SetCursor(0)
}

// Next returns the next count SKUs to audit. A count of zero uses the
// configured batch size.
func (s *AuditService) Next(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		count = s.batchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sync(ctx); err != nil {
		return nil, err
	}

	sequence := s.rotor.NextN(count)
	if current, ok := s.rotor.Current(); ok {
		if err := s.cursors.Save(ctx, auditCursorName, current); err != nil {
			log.Warn().Err(err).Msg("audit: could not persist cursor")
		}
	}
	return sequence, nil
}

// State exposes the circular list for visualization.
func (s *AuditService) State(ctx context.Context) (*domain.CircularListState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.sync(ctx)
	if err != nil {
		return nil, err
	}

	links := s.rotor.Links()
	nodes := make([]domain.RingNode, len(links))
	for i, l := range links {
		nodes[i] = domain.RingNode{
			Index:     l.Index,
			SKU:       l.SKU,
			Name:      snapshot[l.SKU].Name,
			NextIndex: l.Next,
		}
	}

	return &domain.CircularListState{
		Type:        "circular-linked-list",
		Description: "Audit rotation: the tail links back to the head so the schedule never ends",
		Complexity: map[string]string{
			"register": "O(1)",
			"next":     "O(1)",
		},
		Nodes:          nodes,
		CurrentPointer: s.rotor.Cursor(),
		Size:           len(nodes),
	}, nil
}
