package concurrent

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapKeepsOrder(t *testing.T) {
	items := make([]int, 500)
	for i := range items {
		items[i] = i
	}

	var calls atomic.Int64
	out := Map(8, items, func(x int) int {
		calls.Add(1)
		return x * x
	})

	assert.Equal(t, int64(len(items)), calls.Load())
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestMapEmptyAndSingleWorker(t *testing.T) {
	assert.Empty(t, Map(4, []string{}, func(s string) int { return len(s) }))
	assert.Equal(t, []int{1, 3, 2}, Map(0, []string{"a", "abc", "ab"}, func(s string) int { return len(s) }))
}

func TestWorkerPoolCollectsEveryResult(t *testing.T) {
	wp := NewWorkerPool[int, int](3, 2, func(x int) int { return x + 1 })
	wp.Start()
	go func() {
		for i := 0; i < 20; i++ {
			wp.AddJob(i, i*10)
		}
		wp.Close()
	}()

	got := map[int]int{}
	for res := range wp.CollectResults() {
		got[res.ID] = res.Value
	}
	assert.Len(t, got, 20)
	assert.Equal(t, 191, got[19])
}
