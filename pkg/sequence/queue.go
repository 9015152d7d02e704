package sequence

import "container/heap"

type queueItem[T any] struct {
	value T
	seq   uint64
}

type priorityQueue[T any] struct {
	items []queueItem[T]
	less  func(a, b T) bool
}

func (pq *priorityQueue[T]) Len() int {
	return len(pq.items)
}

// Less orders by the caller's comparison and falls back to insertion order,
// so equal items leave the queue first-in first-out.
func (pq *priorityQueue[T]) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if pq.less(a.value, b.value) {
		return true
	}
	if pq.less(b.value, a.value) {
		return false
	}
	return a.seq < b.seq
}

func (pq *priorityQueue[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *priorityQueue[T]) Push(x any) {
	pq.items = append(pq.items, x.(queueItem[T]))
}

func (pq *priorityQueue[T]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem[T]{} // avoid memory leak
	pq.items = old[0 : n-1]
	return item
}

// PriorityQueue pops the least item first according to the ordering it was
// built with. Ties are resolved by insertion order, which makes consumers
// such as graph searches deterministic.
type PriorityQueue[T any] struct {
	pq   priorityQueue[T]
	next uint64
}

// NewPriorityQueue creates a queue ordered by less.
func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	pq := &PriorityQueue[T]{pq: priorityQueue[T]{less: less}}
	heap.Init(&pq.pq)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T) {
	heap.Push(&pq.pq, queueItem[T]{value: value, seq: pq.next})
	pq.next++
}

func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&pq.pq).(queueItem[T]).value, true
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.pq.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.pq.Len() == 0
}
