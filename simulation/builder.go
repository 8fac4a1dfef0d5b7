package simulation

import (
	"github.com/rs/xid"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/metrics"
	"github.com/archlab/memsim/sched"
	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/trace"
	"github.com/archlab/memsim/vm/frame"
	"github.com/archlab/memsim/vm/mmu"
)

// Builder assembles a Simulation from a config.Config, following the
// same chainable, value-receiver pattern used throughout the rest of
// the stack: every With* returns a modified copy.
type Builder struct {
	cfg          config.Config
	tracePath    string
	recorderPath string
	recorderOn   bool
}

// MakeBuilder creates a Builder for cfg, with metrics recording enabled
// by default and no execution trace file.
func MakeBuilder(cfg config.Config) Builder {
	return Builder{cfg: cfg, recorderOn: true}
}

// WithoutRecorder disables the SQLite metrics recorder for this run.
func (b Builder) WithoutRecorder() Builder {
	b.recorderOn = false
	return b
}

// WithRecorderPath sets a custom path for the SQLite metrics database.
func (b Builder) WithRecorderPath(path string) Builder {
	b.recorderPath = path
	return b
}

// WithTraceOutput sets the path the execution trace CSV is written to.
// Leaving it unset disables execution tracing.
func (b Builder) WithTraceOutput(path string) Builder {
	b.tracePath = path
	return b
}

// Build constructs and wires every component the event loop coordinates.
func (b Builder) Build() (*Simulation, error) {
	s := &Simulation{
		id:        xid.New().String(),
		cfg:       b.cfg,
		engine:    sim.NewSerialEngine(),
		mmu:       mmu.New(b.cfg.PageSize, frame.NewTable(b.cfg.NumFrames), b.cfg.TLBSize, b.cfg.FitStrategy),
		scheduler: sched.New(),
		metrics:   metrics.New(),
	}

	if b.recorderOn {
		path := b.recorderPath
		if path == "" {
			path = "memsim_" + s.id + ".sqlite3"
		}
		recorder, err := metrics.NewRecorder(path)
		if err != nil {
			return nil, err
		}
		s.recorder = recorder
	}

	if b.tracePath != "" {
		w := trace.NewWriter(b.tracePath)
		if err := w.Init(); err != nil {
			return nil, err
		}
		s.tracer = w
	}

	s.loop = NewEventLoop(b.cfg, s.engine, s.mmu, s.scheduler, s.metrics, s.tracer)
	return s, nil
}
