package pour

import (
	"container/heap"
	"time"
)

// event switches one channel of a running plan on or off.
type event struct {
	at      time.Time
	on      bool
	channel int
	seq     uint64
	handle  *Handle
}

// eventQueue orders events by time. At the same instant de-energize events
// come before energize events so a channel is released before it is reused,
// and otherwise events keep their insertion order.
type eventQueue struct {
	events eventHeap
	seq    uint64
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(&q.events)
	return q
}

func (q *eventQueue) push(e *event) {
	q.seq++
	e.seq = q.seq
	heap.Push(&q.events, e)
}

func (q *eventQueue) pop() *event {
	return heap.Pop(&q.events).(*event)
}

func (q *eventQueue) peek() *event {
	return q.events[0]
}

func (q *eventQueue) len() int {
	return q.events.Len()
}

// removeHandle drops all pending events of a handle.
func (q *eventQueue) removeHandle(h *Handle) {
	kept := q.events[:0]
	for _, e := range q.events {
		if e.handle != h {
			kept = append(kept, e)
		}
	}

	for i := len(kept); i < len(q.events); i++ {
		q.events[i] = nil
	}

	q.events = kept
	heap.Init(&q.events)
}

type eventHeap []*event

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}

	if h[i].on != h[j].on {
		return !h[i].on
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return e
}
