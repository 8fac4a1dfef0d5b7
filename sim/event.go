package sim

// EventType identifies what an Event asks the Handler to do. The set is
// extensible; memsim's event loop handles PROC_START, PROC_EXIT, MALLOC,
// FREE, ACCESS, and PAGEIN_COMPLETE, and logs every other type in its
// default case.
type EventType string

// The event types defined by the trace schema (spec.md section 6).
const (
	EventProcStart      EventType = "PROC_START"
	EventProcExit       EventType = "PROC_EXIT"
	EventMalloc         EventType = "MALLOC"
	EventFree           EventType = "FREE"
	EventAccess         EventType = "ACCESS"
	EventPageinComplete EventType = "PAGEIN_COMPLETE"
	EventIOComplete     EventType = "IO_COMPLETE"
	EventWakeup         EventType = "WAKEUP"
	EventTimer          EventType = "TIMER"
	EventSleep          EventType = "SLEEP"
	EventIOStart        EventType = "IO_START"
)

// PID identifies a process across its lifetime. It is unique only while a
// process is registered; the simulator never reuses a pid for a different
// process.
type PID uint32

// Handler processes events dispatched to it by an Engine.
type Handler interface {
	Handle(evt *Event) error
}

// Event is a single scheduled occurrence. EventKey (Time, Priority, PID,
// Seq) defines its place in the EventQueue's total order: smaller is
// earlier, lexicographically.
type Event struct {
	Time     VTimeInCycles
	Priority int
	PID      PID
	Seq      uint64
	Type     EventType
	Args     []string
	Raw      string

	handler Handler
}

// NewEvent builds an Event with Seq left at zero; EventQueue.Push assigns
// the next sequence number when it sees Seq == 0.
func NewEvent(
	t VTimeInCycles,
	priority int,
	pid PID,
	evtType EventType,
	args []string,
	handler Handler,
) *Event {
	return &Event{
		Time:     t,
		Priority: priority,
		PID:      pid,
		Type:     evtType,
		Args:     args,
		handler:  handler,
	}
}

// Handler returns the handler that should process this event.
func (e *Event) Handler() Handler {
	return e.handler
}

// SetHandler assigns the handler that will process this event. It exists
// so an EventQueue owner can finalize wiring after construction, the way
// EventBase.SetHandler does in the teacher implementation.
func (e *Event) SetHandler(h Handler) {
	e.handler = h
}

// less reports whether e sorts before other under EventKey ordering:
// lexicographic on (Time, Priority, PID, Seq), all ascending.
func (e *Event) less(other *Event) bool {
	if e.Time != other.Time {
		return e.Time < other.Time
	}
	if e.Priority != other.Priority {
		return e.Priority < other.Priority
	}
	if e.PID != other.PID {
		return e.PID < other.PID
	}
	return e.Seq < other.Seq
}
