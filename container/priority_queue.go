// Package container holds small generic data structures shared across the
// control core.
package container

import "container/heap"

// item is a single element held by the priority queue.
type item[T any] struct {
	Value    T
	Priority float64
	index    int // maintained by heap.Interface
}

// priorityQueue implements heap.Interface over a slice of *item[T].
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

// Less orders by ascending priority so Pop returns the smallest priority
// first (a min-heap).
func (pq priorityQueue[T]) Less(i, j int) bool {
	return pq[i].Priority < pq[j].Priority
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	n := len(*pq)
	it := x.(*item[T])
	it.index = n
	*pq = append(*pq, it)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

// PriorityQueue is a generic min-heap keyed by a float64 priority.
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
}

// NewPriorityQueue creates an empty priority queue.
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len returns the number of queued elements.
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// Push appends an element without maintaining heap order; call Heapify
// after a batch of Push calls.
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, &item[T]{Value: value, Priority: priority})
}

// Heapify restores heap order after one or more plain Push calls.
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush inserts an element while maintaining heap order.
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, &item[T]{Value: value, Priority: priority})
}

// HeapPop removes and returns the element with the smallest priority.
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	it := heap.Pop(&q.queue).(*item[T])
	return it.Value, it.Priority
}

// PushBounded inserts value at priority, then evicts the
// smallest-priority element if doing so grew the queue past limit. This
// is the bounded top-K retention pattern experience-memory retrieval
// uses to keep only the K most similar matches without a separate sort
// pass over every candidate.
func (q *PriorityQueue[T]) PushBounded(value T, priority float64, limit int) {
	q.HeapPush(value, priority)
	if q.Len() > limit {
		q.HeapPop()
	}
}
