package simulation

import (
	"io"
	"log"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/metrics"
	"github.com/archlab/memsim/sched"
	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/trace"
	"github.com/archlab/memsim/vm/mmu"
)

// Simulation is a fully wired, ready-to-run memory-management
// simulation: the event engine plus every component the event loop
// coordinates.
type Simulation struct {
	id  string
	cfg config.Config

	engine    *sim.SerialEngine
	mmu       *mmu.MMU
	scheduler *sched.Scheduler
	metrics   *metrics.Metrics
	recorder  *metrics.Recorder
	tracer    *trace.Writer
	loop      *EventLoop
}

// ID returns the run's unique identifier.
func (s *Simulation) ID() string { return s.id }

// Engine returns the underlying event engine.
func (s *Simulation) Engine() *sim.SerialEngine { return s.engine }

// Metrics returns the simulation's metrics collector.
func (s *Simulation) Metrics() *metrics.Metrics { return s.metrics }

// LoadTrace parses r as a CSV trace and enqueues its events, bound to
// this simulation's event loop.
func (s *Simulation) LoadTrace(r io.Reader) int {
	return trace.LoadInto(r, s.engine.Queue(), s.loop)
}

// Run executes the event loop to completion.
func (s *Simulation) Run() error {
	return s.engine.Run()
}

// Summarize logs the final page-fault count and heap metrics, and (if a
// recorder is attached) persists a Snapshot row for this run.
func (s *Simulation) Summarize() {
	log.Printf("run %s: page faults=%d cache_hit_rate=%.2f%% latency_p50=%d latency_p90=%d latency_p99=%d",
		s.id, s.loop.PageFaults(), s.metrics.CacheHitRate()*100,
		s.metrics.LatencyP50(), s.metrics.LatencyP90(), s.metrics.LatencyP99())
	log.Printf("run %s: heap total=%d allocated=%d free=%d largest_free=%d internal_frag=%d external_frag=%.4f",
		s.id, s.metrics.TotalHeapSize(), s.metrics.AllocatedBytes(), s.metrics.FreeBytes(),
		s.metrics.LargestFreeBlock(), s.metrics.InternalFragmentation(), s.metrics.ExternalFragmentation())

	if s.recorder != nil {
		if err := s.recorder.Record(s.metrics.Snapshot(s.id)); err != nil {
			log.Printf("run %s: failed to record metrics: %v", s.id, err)
		}
	}

	if s.tracer != nil {
		s.tracer.Flush()
	}
}

// Terminate releases the simulation's external resources.
func (s *Simulation) Terminate() error {
	if s.recorder != nil {
		return s.recorder.Close()
	}
	return nil
}
