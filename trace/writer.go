package trace

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/archlab/memsim/sim"
)

// Record is one dispatched event, captured for the execution trace.
type Record struct {
	Time     sim.VTimeInCycles
	PID      sim.PID
	Type     sim.EventType
	Outcome  string
	Detail   string
}

// Writer buffers dispatched-event records and flushes them to a CSV
// file. It registers an atexit handler that flushes and closes the file
// when the program exits through atexit.Exit or atexit.Fatal; a plain
// os.Exit or log.Fatal does not run that handler.
type Writer struct {
	path string
	file *os.File

	records    []Record
	bufferSize int
}

// NewWriter creates a Writer that will write to path once Init is called.
func NewWriter(path string) *Writer {
	return &Writer{path: path, bufferSize: 1000}
}

// Init creates (or truncates) the trace file and registers an atexit
// flush handler.
func (w *Writer) Init() error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", w.path, err)
	}
	w.file = file

	fmt.Fprintf(file, "Time, PID, Type, Outcome, Detail\n")

	atexit.Register(func() {
		w.Flush()
		_ = w.file.Close()
	})
	return nil
}

// Write appends a record, flushing automatically once the buffer fills.
func (w *Writer) Write(r Record) {
	w.records = append(w.records, r)
	if len(w.records) >= w.bufferSize {
		w.Flush()
	}
}

// Flush writes every buffered record to disk.
func (w *Writer) Flush() {
	if w.file == nil {
		return
	}
	for _, r := range w.records {
		fmt.Fprintf(w.file, "%d, %d, %s, %s, %s\n", r.Time, r.PID, r.Type, r.Outcome, r.Detail)
	}
	w.records = nil
}
