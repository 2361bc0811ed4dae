package datastructure

import "container/heap"

type Item interface {
	~int | ~int32 | ~int64
}

type Rank interface {
	~int | ~int32 | ~int64 | ~float64
}

type PriorityQueueNode[T Item, G Rank] struct {
	rank G
	item T
}

func NewPriorityQueueNode[T Item, G Rank](rank G, item T) PriorityQueueNode[T, G] {
	return PriorityQueueNode[T, G]{rank: rank, item: item}
}

func (n PriorityQueueNode[T, G]) GetItem() T {
	return n.item
}

func (n PriorityQueueNode[T, G]) GetRank() G {
	return n.rank
}

// priorityQueue is a min-heap ordered by rank, ties broken by the smaller item.
type priorityQueue[T Item, G Rank] []PriorityQueueNode[T, G]

func (pq priorityQueue[T, G]) Len() int {
	return len(pq)
}

func (pq priorityQueue[T, G]) Less(i, j int) bool {
	if pq[i].rank == pq[j].rank {
		return pq[i].item < pq[j].item
	}
	return pq[i].rank < pq[j].rank
}

func (pq priorityQueue[T, G]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue[T, G]) Push(x interface{}) {
	*pq = append(*pq, x.(PriorityQueueNode[T, G]))
}

func (pq *priorityQueue[T, G]) Pop() interface{} {
	old := *pq
	n := len(old)
	no := old[n-1]
	*pq = old[0 : n-1]
	return no
}

// MinHeap has no decrease-key. Searches push duplicates and skip stale
// entries when they are popped.
type MinHeap[T Item, G Rank] struct {
	pq priorityQueue[T, G]
}

func NewMinHeap[T Item, G Rank](capacity int) *MinHeap[T, G] {
	return &MinHeap[T, G]{pq: make(priorityQueue[T, G], 0, capacity)}
}

func (h *MinHeap[T, G]) Insert(item T, rank G) {
	heap.Push(&h.pq, NewPriorityQueueNode(rank, item))
}

// ExtractMin panics when the heap is empty.
func (h *MinHeap[T, G]) ExtractMin() PriorityQueueNode[T, G] {
	return heap.Pop(&h.pq).(PriorityQueueNode[T, G])
}

// GetMin returns the smallest node without removing it. ok is false on an empty heap.
func (h *MinHeap[T, G]) GetMin() (node PriorityQueueNode[T, G], ok bool) {
	if len(h.pq) == 0 {
		return node, false
	}
	return h.pq[0], true
}

func (h *MinHeap[T, G]) Size() int {
	return len(h.pq)
}

func (h *MinHeap[T, G]) IsEmpty() bool {
	return len(h.pq) == 0
}

// Clear empties the heap and keeps the backing array.
func (h *MinHeap[T, G]) Clear() {
	h.pq = h.pq[:0]
}
