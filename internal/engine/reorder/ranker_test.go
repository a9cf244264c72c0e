package reorder

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func popAll(r *Ranker) []Item {
	var out []Item
	for {
		item, ok := r.Pop()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

func assertNonDecreasing(t *testing.T, items []Item) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Score, items[i].Score, "position %d", i)
	}
}

func TestRanker_PopsMostUrgentFirst(t *testing.T) {
	r := Build(map[string]float64{
		"SKU-NORMAL":   10,
		"SKU-CRITICAL": 2,
		"SKU-FULL":     50,
	})

	top, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, "SKU-CRITICAL", top.SKU)
	assert.Equal(t, 2.0, top.Score)
}

func TestRanker_UrgencyScenario(t *testing.T) {
	// stock=10 sales=[2,2] scores 5, stock=10 without sales scores the sentinel
	r := Build(map[string]float64{"SELLING": 5.0, "IDLE": 999})

	top, ok := r.PeekMostUrgent()
	require.True(t, ok)
	assert.Equal(t, "SELLING", top.SKU)
	assert.Equal(t, 2, r.Len(), "peek must not remove")
}

func TestRanker_EmptyHasNoCriticalItems(t *testing.T) {
	r := Build(nil)

	_, ok := r.PeekMostUrgent()
	assert.False(t, ok)
	_, ok = r.Pop()
	assert.False(t, ok)
	assert.Empty(t, r.Ordered())
}

func TestRanker_PopOrderNonDecreasingForAnyInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 0; n <= 64; n++ {
		scores := make(map[string]float64, n)
		r := New(n)
		for i := 0; i < n; i++ {
			sku := fmt.Sprintf("SKU%03d", i)
			score := float64(rng.Intn(20))
			scores[sku] = score
			r.Push(sku, score)
		}

		built := popAll(Build(scores))
		pushed := popAll(r)

		require.Len(t, built, n)
		require.Len(t, pushed, n)
		assertNonDecreasing(t, built)
		assertNonDecreasing(t, pushed)
		assert.Equal(t, built, pushed, "build and incremental push agree for n=%d", n)
	}
}

func TestRanker_UpdateScoreReorders(t *testing.T) {
	r := Build(map[string]float64{"A": 1, "B": 5, "C": 9})

	require.True(t, r.UpdateScore("C", 0.5))
	top, _ := r.PeekMostUrgent()
	assert.Equal(t, "C", top.SKU)

	require.True(t, r.UpdateScore("C", 20))
	assert.Equal(t, []Item{{"A", 1}, {"B", 5}, {"C", 20}}, popAll(r))

	assert.False(t, r.UpdateScore("missing", 1))
}

func TestRanker_PushExistingUpdates(t *testing.T) {
	r := New(2)
	r.Push("A", 4)
	r.Push("A", 1)

	assert.Equal(t, 1, r.Len())
	top, _ := r.PeekMostUrgent()
	assert.Equal(t, 1.0, top.Score)
}

func TestRanker_Remove(t *testing.T) {
	r := Build(map[string]float64{"A": 3, "B": 1, "C": 2, "D": 4})

	assert.True(t, r.Remove("C"))
	assert.False(t, r.Remove("C"))
	assert.Equal(t, []Item{{"B", 1}, {"A", 3}, {"D", 4}}, popAll(r))
}

func TestRanker_OrderedDoesNotConsume(t *testing.T) {
	r := Build(map[string]float64{"A": 3, "B": 1})

	assert.Equal(t, []Item{{"B", 1}, {"A", 3}}, r.Ordered())
	assert.Equal(t, 2, r.Len())
}

func TestRanker_SlotsKeepHeapInvariant(t *testing.T) {
	r := Build(map[string]float64{"A": 8, "B": 3, "C": 5, "D": 1, "E": 9, "F": 2})

	slots := r.Slots()
	for i := 1; i < len(slots); i++ {
		parent := (i - 1) / 2
		assert.LessOrEqual(t, slots[parent].Score, slots[i].Score)
	}
}
