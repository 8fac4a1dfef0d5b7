package sim

import "fmt"

// Engine runs the discrete-event simulation: it owns the Clock and the
// EventQueue and dispatches events to their Handler in EventKey order.
type Engine interface {
	Hookable

	// Schedule enqueues evt for future dispatch. Panics if evt.Time is
	// before the engine's current time.
	Schedule(evt *Event)

	// Run drains the queue, dispatching every event in order, until it is
	// empty.
	Run() error

	// CurrentTime returns the time of the event currently (or most
	// recently) dispatched.
	CurrentTime() VTimeInCycles
}

// SerialEngine is an Engine that dispatches events one at a time, in
// strict EventKey order, on the calling goroutine.
type SerialEngine struct {
	HookableBase

	clock *Clock
	queue *EventQueue
}

// NewSerialEngine creates a SerialEngine with a fresh Clock and
// EventQueue.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		clock: NewClock(),
		queue: NewEventQueue(),
	}
}

// Schedule enqueues evt. It panics if evt.Time precedes the engine's
// current time, since that would violate the "never rewind" rule the
// dispatch loop depends on.
func (e *SerialEngine) Schedule(evt *Event) {
	now := e.clock.Now()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"sim: scheduling event %s for pid %d at t=%d before current time t=%d",
			evt.Type, evt.PID, evt.Time, now))
	}
	e.queue.Push(evt)
}

// Run dispatches every queued event in EventKey order, advancing the clock
// as it goes, until the queue is empty.
func (e *SerialEngine) Run() error {
	for {
		evt, err := e.queue.Pop()
		if err == ErrEmptyQueue {
			return nil
		}
		if err != nil {
			return err
		}

		e.clock.Advance(evt.Time)

		hookCtx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
		e.InvokeHook(hookCtx)

		handler := evt.Handler()
		if handler == nil {
			continue
		}
		if err := handler.Handle(evt); err != nil {
			return err
		}

		hookCtx.Pos = HookPosAfterEvent
		e.InvokeHook(hookCtx)
	}
}

// CurrentTime returns the engine's clock reading.
func (e *SerialEngine) CurrentTime() VTimeInCycles {
	return e.clock.Now()
}

// Queue exposes the engine's EventQueue so a trace loader can push
// events directly into it ahead of Run.
func (e *SerialEngine) Queue() *EventQueue {
	return e.queue
}
