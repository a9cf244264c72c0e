package reorder

import (
	"container/heap"
	"sort"
)

// Item is a SKU with its urgency score (days remaining).
type Item struct {
	SKU   string  `json:"sku"`
	Score float64 `json:"score"`
}

// Ranker is a min-priority structure over SKUs: the smallest score, the
// most urgent SKU, sits at the root. Ties are broken by SKU so that the pop
// order is reproducible for a given snapshot.
//
// A reverse index from SKU to heap position keeps UpdateScore and Remove
// logarithmic. Ranker is not safe for concurrent use; it is meant to be built
// from a snapshot per query and discarded.
type Ranker struct {
	h minHeap
}

// New creates an empty ranker with room for capacity SKUs.
func New(capacity int) *Ranker {
	if capacity < 0 {
		capacity = 0
	}
	return &Ranker{h: minHeap{
		items: make([]Item, 0, capacity),
		pos:   make(map[string]int, capacity),
	}}
}

// Build creates a ranker from a full score snapshot. SKUs are laid out in
// sorted order before heapify so the backing array is reproducible.
func Build(scores map[string]float64) *Ranker {
	skus := make([]string, 0, len(scores))
	for sku := range scores {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	r := New(len(scores))
	for _, sku := range skus {
		r.h.pos[sku] = len(r.h.items)
		r.h.items = append(r.h.items, Item{SKU: sku, Score: scores[sku]})
	}
	heap.Init(&r.h)
	return r
}

// Len returns the number of ranked SKUs.
func (r *Ranker) Len() int {
	return r.h.Len()
}

// Push inserts a SKU, or updates its score if it is already ranked.
func (r *Ranker) Push(sku string, score float64) {
	if r.UpdateScore(sku, score) {
		return
	}
	heap.Push(&r.h, Item{SKU: sku, Score: score})
}

// PeekMostUrgent returns the SKU with the lowest score without removing it.
// The boolean is false when there are no critical items to report.
func (r *Ranker) PeekMostUrgent() (Item, bool) {
	if r.h.Len() == 0 {
		return Item{}, false
	}
	return r.h.items[0], true
}

// Pop removes and returns the most urgent SKU.
func (r *Ranker) Pop() (Item, bool) {
	if r.h.Len() == 0 {
		return Item{}, false
	}
	return heap.Pop(&r.h).(Item), true
}

// UpdateScore changes the score of a ranked SKU and restores heap order.
// It returns false when the SKU is not ranked.
func (r *Ranker) UpdateScore(sku string, score float64) bool {
	i, ok := r.h.pos[sku]
	if !ok {
		return false
	}
	r.h.items[i].Score = score
	heap.Fix(&r.h, i)
	return true
}

// Remove drops a SKU from the ranking.
func (r *Ranker) Remove(sku string) bool {
	i, ok := r.h.pos[sku]
	if !ok {
		return false
	}
	heap.Remove(&r.h, i)
	return true
}

// Ordered returns every SKU from most to least urgent without consuming the ranker.
func (r *Ranker) Ordered() []Item {
	out := make([]Item, len(r.h.items))
	copy(out, r.h.items)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Slots returns a copy of the backing array in heap order, for introspection.
func (r *Ranker) Slots() []Item {
	out := make([]Item, len(r.h.items))
	copy(out, r.h.items)
	return out
}

func less(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.SKU < b.SKU
}

// minHeap implements heap.Interface and tracks each SKU's slot.
type minHeap struct {
	items []Item
	pos   map[string]int
}

func (h minHeap) Len() int           { return len(h.items) }
func (h minHeap) Less(i, j int) bool { return less(h.items[i], h.items[j]) }

func (h minHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].SKU] = i
	h.pos[h.items[j].SKU] = j
}

func (h *minHeap) Push(x any) {
	item := x.(Item)
	h.pos[item.SKU] = len(h.items)
	h.items = append(h.items, item)
}

func (h *minHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	delete(h.pos, item.SKU)
	return item
}
