// Package simulation wires the Clock, EventQueue, MMU, Scheduler, and
// Metrics together into a runnable simulation, and builds it the way
// the rest of the corpus builds its top-level objects: a chainable
// Builder that produces an immutable handle.
package simulation

import (
	"fmt"
	"log"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/metrics"
	"github.com/archlab/memsim/sched"
	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/trace"
	"github.com/archlab/memsim/vm"
	"github.com/archlab/memsim/vm/mmu"
)

// EventLoop is the glue component described in the specification's
// event-dispatch table: it owns no state of its own beyond references
// to the components it coordinates and a page-fault counter, and
// implements sim.Handler so the
// engine can dispatch trace events directly into it.
type EventLoop struct {
	cfg     config.Config
	engine  *sim.SerialEngine
	mmu     *mmu.MMU
	sched   *sched.Scheduler
	metrics *metrics.Metrics
	tracer  *trace.Writer

	pageFaults uint64
}

// NewEventLoop creates an EventLoop over already-constructed components.
func NewEventLoop(cfg config.Config, engine *sim.SerialEngine, m *mmu.MMU, s *sched.Scheduler, met *metrics.Metrics, tracer *trace.Writer) *EventLoop {
	return &EventLoop{cfg: cfg, engine: engine, mmu: m, sched: s, metrics: met, tracer: tracer}
}

// PageFaults returns the cumulative page-fault count observed by this
// loop, for the final summary.
func (l *EventLoop) PageFaults() uint64 { return l.pageFaults }

// Handle dispatches a single event by type, per the specification's
// event-loop glue table. Programmer errors (duplicate/unknown pid,
// invalid free, impossible eviction) propagate out of Handle and, in
// turn, out of the engine's Run — they are fatal to the simulation.
// Trace-level problems (a MALLOC that can't be satisfied) are logged
// and the run continues.
func (l *EventLoop) Handle(evt *sim.Event) error {
	switch evt.Type {
	case sim.EventProcStart:
		return l.handleProcStart(evt)
	case sim.EventProcExit:
		return l.handleProcExit(evt)
	case sim.EventMalloc:
		return l.handleMalloc(evt)
	case sim.EventFree:
		return l.handleFree(evt)
	case sim.EventAccess:
		return l.handleAccess(evt)
	case sim.EventPageinComplete:
		return l.handlePageinComplete(evt)
	default:
		log.Printf("simulation: unhandled event type %q at t=%d", evt.Type, evt.Time)
		return nil
	}
}

func (l *EventLoop) handleProcStart(evt *sim.Event) error {
	heapBase, err := parseArgU64(evt, 0)
	if err != nil {
		return err
	}
	heapTop, err := parseArgU64(evt, 1)
	if err != nil {
		return err
	}

	var heapSize uint64
	if heapTop > heapBase {
		heapSize = heapTop - heapBase
	}

	if err := l.mmu.RegisterProcess(evt.PID, heapBase, heapSize); err != nil {
		return err
	}
	if err := l.sched.AddProcess(evt.PID); err != nil {
		return err
	}

	l.trace(evt, "OK", fmt.Sprintf("heap=[0x%x,0x%x)", heapBase, heapTop))
	return nil
}

func (l *EventLoop) handleProcExit(evt *sim.Event) error {
	l.mmu.UnregisterProcess(evt.PID)
	l.sched.TerminateProcess(evt.PID)
	l.trace(evt, "OK", "")
	return nil
}

func (l *EventLoop) handleMalloc(evt *sim.Event) error {
	proc, err := l.mmu.Process(evt.PID)
	if err != nil {
		return err
	}
	size, err := parseArgU64(evt, 0)
	if err != nil {
		return err
	}

	addr, ok := proc.HeapAlloc(size)
	l.publishHeapMetrics(proc)
	if !ok {
		log.Printf("simulation: MALLOC failed pid=%d size=%d", evt.PID, size)
		l.trace(evt, "FAILED", fmt.Sprintf("size=%d", size))
		return nil
	}

	l.trace(evt, "OK", fmt.Sprintf("size=%d addr=0x%x", size, addr))
	return nil
}

func (l *EventLoop) handleFree(evt *sim.Event) error {
	proc, err := l.mmu.Process(evt.PID)
	if err != nil {
		return err
	}
	addr, err := parseArgU64(evt, 0)
	if err != nil {
		return err
	}

	if err := proc.HeapFree(addr); err != nil {
		return err
	}
	l.publishHeapMetrics(proc)
	l.trace(evt, "OK", fmt.Sprintf("addr=0x%x", addr))
	return nil
}

func (l *EventLoop) handleAccess(evt *sim.Event) error {
	running, ok := l.sched.ScheduleNext()
	if !ok {
		log.Printf("simulation: ACCESS at t=%d with no runnable process", evt.Time)
		return nil
	}

	vaddr, err := parseArgU64(evt, 0)
	if err != nil {
		return err
	}

	result, latency, vpn, err := l.mmu.Access(running, vaddr)
	if err != nil {
		return err
	}
	l.metrics.RecordAccessLatency(uint64(latency))

	if result == mmu.Hit {
		// Only the TLB (latency 1) is a cache hit; a page-table hit
		// (latency 5) is a TLB miss that the page table satisfied without
		// faulting.
		if latency == mmu.LatencyCacheHit {
			l.metrics.RecordCacheHit()
		} else {
			l.metrics.RecordCacheMiss()
		}
		l.trace(evt, result.String(), fmt.Sprintf("pid=%d vaddr=0x%x", running, vaddr))
		return nil
	}

	l.metrics.RecordCacheMiss()
	l.metrics.RecordPageFault()
	l.pageFaults++

	if err := l.sched.BlockCurrent(); err != nil {
		return err
	}

	completeAt := evt.Time + sim.VTimeInCycles(l.cfg.PageinLatency)
	l.engine.Schedule(sim.NewEvent(completeAt, trace.PriorityForType[sim.EventPageinComplete], running, sim.EventPageinComplete,
		[]string{fmt.Sprintf("%d", vpn)}, l))

	l.trace(evt, result.String(), fmt.Sprintf("pid=%d vaddr=0x%x vpn=%d", running, vaddr, vpn))
	return nil
}

func (l *EventLoop) handlePageinComplete(evt *sim.Event) error {
	vpnVal, err := parseArgU64(evt, 0)
	if err != nil {
		return err
	}
	vpn := vm.VPN(vpnVal)

	if _, err := l.mmu.Process(evt.PID); err != nil {
		// The owning process exited before its pagein fired. Per the
		// concurrency model, PAGEIN_COMPLETE must tolerate this: skip.
		log.Printf("simulation: PAGEIN_COMPLETE for exited pid=%d vpn=%d at t=%d", evt.PID, vpn, evt.Time)
		return nil
	}

	if err := l.mmu.CompletePagein(evt.PID, vpn, evt.Time); err != nil {
		return err
	}
	if err := l.sched.WakeProcess(evt.PID); err != nil {
		return err
	}

	l.trace(evt, "OK", fmt.Sprintf("pid=%d vpn=%d", evt.PID, vpn))
	return nil
}

func (l *EventLoop) publishHeapMetrics(p *vm.Process) {
	h := p.Heap()
	l.metrics.UpdateHeap(metrics.HeapSnapshot{
		TotalHeapSize:     h.TotalHeapSize(),
		AllocatedBytes:    h.AllocatedBytes(),
		FreeBytes:         h.FreeBytes(),
		LargestFreeBlock:  h.LargestFreeBlock(),
		InternalFragBytes: h.InternalFragmentation(),
	})
}

func (l *EventLoop) trace(evt *sim.Event, outcome, detail string) {
	if l.tracer == nil {
		return
	}
	l.tracer.Write(trace.Record{Time: evt.Time, PID: evt.PID, Type: evt.Type, Outcome: outcome, Detail: detail})
}

func parseArgU64(evt *sim.Event, idx int) (uint64, error) {
	if idx >= len(evt.Args) {
		return 0, fmt.Errorf("simulation: event %s at t=%d missing arg %d", evt.Type, evt.Time, idx)
	}
	v, err := trace.ParseU64(evt.Args[idx])
	if err != nil {
		return 0, fmt.Errorf("simulation: event %s at t=%d: %w", evt.Type, evt.Time, err)
	}
	return v, nil
}
