package dispatch

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/domain"
)

var catalog = domain.ProductSnapshot{
	"SKU001": {SKU: "SKU001", Name: "Paracetamol 500mg", Stock: 100},
	"SKU002": {SKU: "SKU002", Name: "Insulin Pen", Stock: 3},
}

func order(id string, tier int, days float64) domain.Order {
	return domain.Order{
		ID:                     id,
		SKU:                    "SKU001",
		Tier:                   tier,
		Quantity:               5,
		Status:                 domain.StatusPending,
		DaysRemainingAtEnqueue: days,
	}
}

func mustEnqueue(t *testing.T, q *Queue, o domain.Order) domain.QueueEntry {
	t.Helper()
	e, err := q.Enqueue(o, catalog)
	require.NoError(t, err)
	return e
}

func drain(q *Queue) []domain.QueueEntry {
	var out []domain.QueueEntry
	for {
		e, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestScorer_Default(t *testing.T) {
	s := DefaultScorer()

	score, reason := s.Score(domain.TierStandard, 30)
	assert.Equal(t, 70, score)
	assert.Equal(t, ReasonStandard, reason)

	score, reason = s.Score(domain.TierVIP, 30)
	assert.Equal(t, 120, score)
	assert.Equal(t, ReasonVIP, reason)

	score, reason = s.Score(domain.TierStandard, 6.5)
	assert.Equal(t, 570, score)
	assert.Equal(t, ReasonExpiry, reason)

	score, _ = s.Score(domain.TierStandard, 7)
	assert.Equal(t, 70, score, "threshold is exclusive")
}

func TestQueue_VIPJumpsStandard(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("STD", domain.TierStandard, 30))
	mustEnqueue(t, q, order("VIP", domain.TierVIP, 30))

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "VIP", first.ID)
	assert.Equal(t, 120, first.PriorityScore)
}

func TestQueue_ExpiryRiskBeatsTier(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("PRIO", domain.TierPriority, 40))
	mustEnqueue(t, q, order("EXP", domain.TierStandard, 2))

	first, _ := q.Peek()
	assert.Equal(t, "EXP", first.ID)
	assert.Equal(t, ReasonExpiry, first.PriorityReason)
}

func TestQueue_EqualScoresAreFIFO(t *testing.T) {
	q := NewQueue(DefaultScorer())
	for i := 0; i < 20; i++ {
		mustEnqueue(t, q, order(fmt.Sprintf("ORD-%02d", i), domain.TierStandard, 30))
	}

	for i, e := range drain(q) {
		assert.Equal(t, fmt.Sprintf("ORD-%02d", i), e.ID)
	}
}

func TestQueue_PopOrderForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	q := NewQueue(DefaultScorer())
	for i := 0; i < 200; i++ {
		o := order(fmt.Sprintf("ORD-%03d", i), 1+rng.Intn(3), float64(rng.Intn(14)))
		mustEnqueue(t, q, o)
	}

	popped := drain(q)
	require.Len(t, popped, 200)
	for i := 1; i < len(popped); i++ {
		prev, cur := popped[i-1], popped[i]
		assert.GreaterOrEqual(t, prev.PriorityScore, cur.PriorityScore)
		if prev.PriorityScore == cur.PriorityScore {
			assert.Less(t, prev.Sequence, cur.Sequence)
		}
	}
}

func TestQueue_RejectsUnknownSKU(t *testing.T) {
	q := NewQueue(DefaultScorer())
	o := order("X", domain.TierStandard, 30)
	o.SKU = "GHOST"

	_, err := q.Enqueue(o, catalog)
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RejectsMalformedOrder(t *testing.T) {
	q := NewQueue(DefaultScorer())
	o := order("X", 4, 30)

	_, err := q.Enqueue(o, catalog)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	o = order("Y", domain.TierStandard, 30)
	o.Quantity = 0
	_, err = q.Enqueue(o, catalog)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestQueue_CancelKeepsRelativeOrder(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("A", domain.TierStandard, 30))
	mustEnqueue(t, q, order("B", domain.TierVIP, 30))
	mustEnqueue(t, q, order("C", domain.TierStandard, 30))
	mustEnqueue(t, q, order("D", domain.TierStandard, 3))
	mustEnqueue(t, q, order("E", domain.TierVIP, 30))

	assert.True(t, q.Cancel("E"))
	assert.False(t, q.Cancel("E"), "second cancel is a no-op")
	assert.False(t, q.Cancel("missing"))

	var ids []string
	for _, e := range drain(q) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, ids)
}

func TestQueue_ReenqueueReplaces(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("A", domain.TierStandard, 30))
	mustEnqueue(t, q, order("B", domain.TierStandard, 30))
	mustEnqueue(t, q, order("A", domain.TierStandard, 30))

	assert.Equal(t, 2, q.Len())
	first, _ := q.Peek()
	assert.Equal(t, "B", first.ID)
}

func TestQueue_Reconcile(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("X", domain.TierStandard, 30))
	mustEnqueue(t, q, order("Y", domain.TierStandard, 30))

	assert.Equal(t, 1, q.Reconcile([]string{"X"}))
	_, ok := q.Get("X")
	assert.False(t, ok)

	assert.Equal(t, 0, q.Reconcile([]string{"X"}), "reconciling again is a no-op")
	assert.Equal(t, 0, q.Reconcile(nil))
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PeekAllEnrichesStock(t *testing.T) {
	q := NewQueue(DefaultScorer())
	low := order("LOW", domain.TierStandard, 30)
	low.SKU = "SKU002"
	mustEnqueue(t, q, low)
	mustEnqueue(t, q, order("OK", domain.TierVIP, 30))

	all := q.PeekAll(catalog)
	require.Len(t, all, 2)
	assert.Equal(t, "OK", all[0].ID)
	assert.True(t, all[0].StockAvailable)
	assert.Equal(t, 100, all[0].CurrentStock)
	assert.Equal(t, "LOW", all[1].ID)
	assert.False(t, all[1].StockAvailable)
	assert.Equal(t, 3, all[1].CurrentStock)

	assert.Equal(t, 2, q.Len(), "peek does not consume")
}

func TestQueue_UpdateQuantityKeepsPosition(t *testing.T) {
	q := NewQueue(DefaultScorer())
	mustEnqueue(t, q, order("A", domain.TierStandard, 30))
	mustEnqueue(t, q, order("B", domain.TierStandard, 30))

	require.True(t, q.UpdateQuantity("A", 2, decimal.NewFromInt(20)))
	assert.False(t, q.UpdateQuantity("missing", 1, decimal.Zero))

	first, _ := q.Pop()
	assert.Equal(t, "A", first.ID)
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, decimal.NewFromInt(20).Equal(first.TotalAmount))
}

func TestQueue_EmptyPop(t *testing.T) {
	q := NewQueue(DefaultScorer())

	_, ok := q.Pop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	assert.Empty(t, q.PeekAll(catalog))
	assert.Empty(t, q.Snapshot())
}

func TestQueue_ConcurrentMutations(t *testing.T) {
	q := NewQueue(DefaultScorer())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("W%d-%d", w, i)
				_, err := q.Enqueue(order(id, 1+i%3, float64(i%10)), catalog)
				assert.NoError(t, err)
				if i%2 == 0 {
					q.Cancel(id)
				}
				q.PeekAll(catalog)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*25, q.Len())
	assert.Len(t, q.IDs(), 8*25)
}
