// Package config builds the parameters a simulation run needs, with an
// optional .env overlay so deployment-specific defaults don't have to be
// passed on the command line every time.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/archlab/memsim/vm/heap"
)

// Config is the resolved set of simulation parameters, built via
// Builder and passed to simulation.Builder.
type Config struct {
	PageSize       uint64
	NumFrames      int
	PageinLatency  uint64
	TLBSize        int
	FitStrategy    heap.FitStrategy
	TracePath      string
}

// Builder assembles a Config with chainable With* methods, following
// the same value-receiver pattern the rest of the simulation is built
// with: every With* returns a modified copy, so a base builder can be
// reused across variations without aliasing.
type Builder struct {
	pageSize      uint64
	numFrames     int
	pageinLatency uint64
	tlbSize       int
	fitStrategy   heap.FitStrategy
	tracePath     string
}

// Defaults: PAGE_SIZE=4096, NUM_FRAMES=4, PAGEIN_LATENCY=10, TLB_SIZE=16,
// first-fit allocation. These are the constants the spec fixes as
// defaults; all are overridable.
const (
	DefaultPageSize      = 4096
	DefaultNumFrames     = 4
	DefaultPageinLatency = 10
	DefaultTLBSize       = 16
)

// MakeBuilder creates a Builder seeded with the spec's default
// constants.
func MakeBuilder() Builder {
	return Builder{
		pageSize:      DefaultPageSize,
		numFrames:     DefaultNumFrames,
		pageinLatency: DefaultPageinLatency,
		tlbSize:       DefaultTLBSize,
		fitStrategy:   heap.FirstFit,
	}
}

// WithPageSize overrides PAGE_SIZE.
func (b Builder) WithPageSize(n uint64) Builder {
	b.pageSize = n
	return b
}

// WithNumFrames overrides NUM_FRAMES.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithPageinLatency overrides PAGEIN_LATENCY.
func (b Builder) WithPageinLatency(cycles uint64) Builder {
	b.pageinLatency = cycles
	return b
}

// WithTLBSize overrides TLB_SIZE (the translation cache's capacity).
func (b Builder) WithTLBSize(n int) Builder {
	b.tlbSize = n
	return b
}

// WithFitStrategy overrides the heap allocator's placement strategy.
func (b Builder) WithFitStrategy(s heap.FitStrategy) Builder {
	b.fitStrategy = s
	return b
}

// WithTracePath sets the input trace file to load.
func (b Builder) WithTracePath(path string) Builder {
	b.tracePath = path
	return b
}

// WithEnvFile loads recognized options (page_size, num_frames,
// pagein_latency, tlb_size, fit_strategy) from a .env-style file at
// path, if it exists, applying them over the current builder state. A
// missing file is not an error — .env overlays are always optional.
func (b Builder) WithEnvFile(path string) (Builder, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return b, fmt.Errorf("config: read %s: %w", path, err)
	}

	if v, ok := env["page_size"]; ok {
		var n uint64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return b, fmt.Errorf("config: page_size: %w", err)
		}
		b.pageSize = n
	}
	if v, ok := env["num_frames"]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return b, fmt.Errorf("config: num_frames: %w", err)
		}
		b.numFrames = n
	}
	if v, ok := env["pagein_latency"]; ok {
		var n uint64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return b, fmt.Errorf("config: pagein_latency: %w", err)
		}
		b.pageinLatency = n
	}
	if v, ok := env["tlb_size"]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return b, fmt.Errorf("config: tlb_size: %w", err)
		}
		b.tlbSize = n
	}
	if v, ok := env["fit_strategy"]; ok {
		strategy, err := heap.ParseFitStrategy(v)
		if err != nil {
			return b, fmt.Errorf("config: %w", err)
		}
		b.fitStrategy = strategy
	}

	return b, nil
}

func (b Builder) parametersMustBeValid() {
	if b.numFrames < 1 {
		panic("config: num_frames must be >= 1")
	}
	if b.pageSize == 0 {
		panic("config: page_size must be > 0")
	}
}

// Build validates and produces the final Config.
func (b Builder) Build() Config {
	b.parametersMustBeValid()
	return Config{
		PageSize:      b.pageSize,
		NumFrames:     b.numFrames,
		PageinLatency: b.pageinLatency,
		TLBSize:       b.tlbSize,
		FitStrategy:   b.fitStrategy,
		TracePath:     b.tracePath,
	}
}
