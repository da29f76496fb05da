package cps

import "container/heap"

// A timedEntry is one routine waiting for a wake time. The sequence number
// keeps ordering stable for entries that share a wake time: container/heap
// alone does not preserve insertion order.
type timedEntry struct {
	when VTimeInMs
	seq  uint64
	r    Resumable
}

// timedQueue orders routines by wake time, insertion order within a time.
type timedQueue struct {
	entries timedHeap
	nextSeq uint64
}

func (q *timedQueue) Push(when VTimeInMs, r Resumable) {
	heap.Push(&q.entries, &timedEntry{when: when, seq: q.nextSeq, r: r})
	q.nextSeq++
}

func (q *timedQueue) Pop() *timedEntry {
	return heap.Pop(&q.entries).(*timedEntry)
}

func (q *timedQueue) Peek() *timedEntry {
	return q.entries[0]
}

func (q *timedQueue) Len() int {
	return q.entries.Len()
}

type timedHeap []*timedEntry

func (h timedHeap) Len() int { return len(h) }

func (h timedHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}

func (h timedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *timedHeap) Push(x any) {
	*h = append(*h, x.(*timedEntry))
}

func (h *timedHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}
