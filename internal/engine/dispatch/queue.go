// Package dispatch ranks pending orders for shipment.
package dispatch

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/pirs/internal/domain"
)

// Catalog resolves SKUs against the current product snapshot.
// domain.ProductSnapshot satisfies it.
type Catalog interface {
	Product(sku string) (domain.Product, bool)
}

type entry struct {
	order  domain.Order
	score  int
	reason string
	seq    uint64
	index  int
}

func (e *entry) view() domain.QueueEntry {
	return domain.QueueEntry{
		Order:          e.order,
		PriorityScore:  e.score,
		PriorityReason: e.reason,
		Sequence:       e.seq,
	}
}

// Queue is a max-priority queue of pending orders. Higher composite scores
// pop first and equal scores pop in enqueue order. An id index makes
// cancellation logarithmic. All methods are safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	scorer Scorer
	h      entryHeap
	byID   map[string]*entry
	seq    uint64
}

// NewQueue creates an empty queue that scores orders with scorer.
func NewQueue(scorer Scorer) *Queue {
	return &Queue{
		scorer: scorer,
		byID:   make(map[string]*entry),
	}
}

// Enqueue scores an order from its tier and DaysRemainingAtEnqueue and adds
// it to the queue. Orders for SKUs missing from the catalog are rejected.
// Enqueueing an id that is already queued replaces the old entry and moves it
// to the back of its score class.
func (q *Queue) Enqueue(order domain.Order, catalog Catalog) (domain.QueueEntry, error) {
	if err := order.Validate(); err != nil {
		return domain.QueueEntry{}, err
	}
	if _, ok := catalog.Product(order.SKU); !ok {
		return domain.QueueEntry{}, fmt.Errorf("enqueue order %s: sku %s: %w", order.ID, order.SKU, domain.ErrProductNotFound)
	}

	score, reason := q.scorer.Score(order.Tier, order.DaysRemainingAtEnqueue)

	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.byID[order.ID]; ok {
		heap.Remove(&q.h, old.index)
		delete(q.byID, order.ID)
	}

	q.seq++
	e := &entry{order: order, score: score, reason: reason, seq: q.seq}
	heap.Push(&q.h, e)
	q.byID[order.ID] = e
	return e.view(), nil
}

// Cancel removes the order with the given id wherever it sits. Cancelling an
// id that is not queued is a no-op and returns false.
func (q *Queue) Cancel(orderID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remove(orderID)
}

func (q *Queue) remove(orderID string) bool {
	e, ok := q.byID[orderID]
	if !ok {
		return false
	}
	heap.Remove(&q.h, e.index)
	delete(q.byID, orderID)
	return true
}

// Pop removes and returns the highest priority order.
func (q *Queue) Pop() (domain.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.h.Len() == 0 {
		return domain.QueueEntry{}, false
	}
	e := heap.Pop(&q.h).(*entry)
	delete(q.byID, e.order.ID)
	return e.view(), true
}

// Peek returns the highest priority order without removing it.
func (q *Queue) Peek() (domain.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.h.Len() == 0 {
		return domain.QueueEntry{}, false
	}
	return q.h[0].view(), true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// Get returns the queued entry for an order id.
func (q *Queue) Get(orderID string) (domain.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byID[orderID]
	if !ok {
		return domain.QueueEntry{}, false
	}
	return e.view(), true
}

// IDs returns the ids of every queued order, in no particular order.
func (q *Queue) IDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(q.byID))
	for id := range q.byID {
		ids = append(ids, id)
	}
	return ids
}

// PeekAll returns the queue in pop order, each entry enriched with the
// current stock of its SKU. The queue itself is not modified.
func (q *Queue) PeekAll(catalog Catalog) []domain.QueueEntry {
	q.mu.Lock()
	out := make([]domain.QueueEntry, len(q.h))
	for i, e := range q.h {
		out[i] = e.view()
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return higher(out[i].PriorityScore, out[i].Sequence, out[j].PriorityScore, out[j].Sequence)
	})

	for i := range out {
		if p, ok := catalog.Product(out[i].SKU); ok {
			out[i].CurrentStock = p.Stock
			out[i].StockAvailable = p.Stock >= out[i].Quantity
		}
	}
	return out
}

// Reconcile drops every queued order whose id is in shipped and returns how
// many were removed. Reconciling a clean queue removes nothing.
func (q *Queue) Reconcile(shipped []string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for _, id := range shipped {
		if q.remove(id) {
			removed++
		}
	}
	return removed
}

// UpdateQuantity records a reduced quantity and total after a partial
// dispatch. The entry keeps its score and sequence.
func (q *Queue) UpdateQuantity(orderID string, qty int, total decimal.Decimal) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byID[orderID]
	if !ok {
		return false
	}
	e.order.Quantity = qty
	e.order.TotalAmount = total
	return true
}

// Snapshot returns the entries in backing-array order, for introspection.
func (q *Queue) Snapshot() []domain.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.QueueEntry, len(q.h))
	for i, e := range q.h {
		out[i] = e.view()
	}
	return out
}

func higher(scoreA int, seqA uint64, scoreB int, seqB uint64) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return seqA < seqB
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	return higher(h[i].score, h[i].seq, h[j].score, h[j].seq)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
