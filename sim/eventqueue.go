package sim

import (
	"container/heap"
	"errors"
	"sync"
)

// ErrEmptyQueue is returned by Pop and Top when the queue holds no events.
var ErrEmptyQueue = errors.New("sim: event queue is empty")

// EventQueue is a priority queue of events ordered by EventKey: smaller
// (Time, Priority, PID, Seq) tuples come first. Pushing assigns a fresh,
// monotonically increasing Seq to any event whose Seq is still zero, which
// is what gives two same-key events FIFO tie-breaking.
type EventQueue struct {
	mu      sync.Mutex
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue with its sequence counter
// starting at 1, as spec.md section 3 requires.
func NewEventQueue() *EventQueue {
	q := &EventQueue{nextSeq: 1}
	heap.Init(&q.events)
	return q
}

// Push inserts evt, assigning it a sequence number if it does not already
// have one.
func (q *EventQueue) Push(evt *Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if evt.Seq == 0 {
		evt.Seq = q.nextSeq
		q.nextSeq++
	}
	heap.Push(&q.events, evt)
}

// PushEvent is the convenience form: it always assigns a fresh Seq,
// ignoring any value the caller may have set.
func (q *EventQueue) PushEvent(
	t VTimeInCycles,
	priority int,
	pid PID,
	evtType EventType,
	args []string,
	raw string,
	handler Handler,
) *Event {
	q.mu.Lock()
	seq := q.nextSeq
	q.nextSeq++

	evt := &Event{
		Time:     t,
		Priority: priority,
		PID:      pid,
		Seq:      seq,
		Type:     evtType,
		Args:     args,
		Raw:      raw,
		handler:  handler,
	}
	heap.Push(&q.events, evt)
	q.mu.Unlock()

	return evt
}

// Pop removes and returns the smallest-key event, or ErrEmptyQueue.
func (q *EventQueue) Pop() (*Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, ErrEmptyQueue
	}
	return heap.Pop(&q.events).(*Event), nil
}

// Top returns the smallest-key event without removing it, or
// ErrEmptyQueue.
func (q *EventQueue) Top() (*Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.events[0], nil
}

// Empty reports whether the queue holds no events.
func (q *EventQueue) Empty() bool {
	return q.Size() == 0
}

// Size returns the number of events currently queued.
func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Clear removes all queued events without affecting the sequence counter.
func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = q.events[:0]
}

// NextSeq returns the sequence number that will be assigned to the next
// event pushed without one.
func (q *EventQueue) NextSeq() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextSeq
}

// eventHeap implements container/heap.Interface over EventKey ordering.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	return h[i].less(h[j])
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return evt
}
