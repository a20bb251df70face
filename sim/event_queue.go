package sim

import (
	"container/heap"
	"fmt"
)

// queueEntry wraps an Event with its schedule sequence number.
type queueEntry struct {
	event Event
	seqID int64
}

// eventHeap implements heap.Interface.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []queueEntry

func (h eventHeap) Len() int { return len(h) }

// Less orders by timestamp → type priority → sequence number.
func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].event.Timestamp(), h[j].event.Timestamp()
	if ti != tj {
		return ti < tj
	}
	pi, pj := EventTypePriority[h[i].event.Type()], EventTypePriority[h[j].event.Type()]
	if pi != pj {
		return pi < pj
	}
	return h[i].seqID < h[j].seqID
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queueEntry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[0 : n-1]
	return item
}

// EventQueue is a min-heap of pending events keyed by timestamp.
//
// Events sharing a timestamp come out in type-priority then schedule order. That
// order is deterministic, but callers should treat it as an implementation detail
// rather than a FIFO guarantee.
type EventQueue struct {
	events  eventHeap
	nextSeq int64
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Schedule inserts an event in O(log n).
// Panics if the event's type has no EventTypePriority entry.
func (q *EventQueue) Schedule(ev Event) {
	if _, ok := EventTypePriority[ev.Type()]; !ok {
		panic(fmt.Sprintf("EventQueue.Schedule: unregistered event type %q", ev.Type()))
	}
	heap.Push(&q.events, queueEntry{event: ev, seqID: q.nextSeq})
	q.nextSeq++
}

// Peek returns the soonest event without removing it, or nil if the queue is empty.
func (q *EventQueue) Peek() Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0].event
}

// PeekDue returns the soonest event if its timestamp is <= now.
func (q *EventQueue) PeekDue(now float64) (Event, bool) {
	ev := q.Peek()
	if ev == nil || ev.Timestamp() > now {
		return nil, false
	}
	return ev, true
}

// PopDue removes and returns the soonest event if its timestamp is <= now.
func (q *EventQueue) PopDue(now float64) (Event, bool) {
	if _, ok := q.PeekDue(now); !ok {
		return nil, false
	}
	return heap.Pop(&q.events).(queueEntry).event, true
}

// Clear drops every pending event and restarts the sequence counter.
func (q *EventQueue) Clear() {
	clear(q.events)
	q.events = q.events[:0]
	q.nextSeq = 0
}
