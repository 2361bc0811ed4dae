package datastructure

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestMinHeapOrder(t *testing.T) {
	h := NewMinHeap[int32, float64](4)
	h.Insert(3, 2.5)
	h.Insert(1, 0.5)
	h.Insert(7, 2.5)
	h.Insert(2, 1.0)
	h.Insert(5, 2.5)

	min, ok := h.GetMin()
	assert.True(t, ok)
	assert.Equal(t, int32(1), min.GetItem())

	got := []int32{}
	for !h.IsEmpty() {
		got = append(got, h.ExtractMin().GetItem())
	}
	// equal ranks come out lowest item first
	assert.Equal(t, []int32{1, 2, 3, 5, 7}, got)

	_, ok = h.GetMin()
	assert.False(t, ok)
}

func TestMinHeapRandom(t *testing.T) {
	rd := rand.New(rand.NewSource(uint64(42)))
	h := NewMinHeap[int, float64](0)
	ranks := make([]float64, 1000)
	for i := range ranks {
		ranks[i] = rd.Float64() * 1000
		h.Insert(i, ranks[i])
	}
	sort.Float64s(ranks)

	for i := range ranks {
		assert.Equal(t, ranks[i], h.ExtractMin().GetRank())
	}

	h.Insert(1, 1)
	h.Clear()
	assert.Equal(t, 0, h.Size())
}
