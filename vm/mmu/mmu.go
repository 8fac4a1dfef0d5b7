// Package mmu implements the memory-management unit that glues a
// process's page table to the shared FrameTable through the
// TranslationCache: it is the only place page-table mutations cross
// process boundaries, and the only place the three cache latencies
// (1/5/100 cycles) are charged.
package mmu

import (
	"fmt"

	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/vm"
	"github.com/archlab/memsim/vm/frame"
	"github.com/archlab/memsim/vm/heap"
	"github.com/archlab/memsim/vm/translationcache"
)

// AccessResult is the outcome of Access.
type AccessResult int

const (
	// Hit means the access was satisfied, via cache or page table, at
	// the corresponding latency.
	Hit AccessResult = iota
	// PageFault means no mapping existed; the caller must arrange a
	// future pagein completion.
	PageFault
)

// String renders an AccessResult for logs and traces.
func (r AccessResult) String() string {
	if r == Hit {
		return "HIT"
	}
	return "PAGE_FAULT"
}

// Access latencies, in simulated cycles, fixed by contract: they feed
// observable metrics and must be reproducible across runs.
const (
	LatencyCacheHit    = sim.VTimeInCycles(1)
	LatencyPageTableHit = sim.VTimeInCycles(5)
	LatencyPageFault   = sim.VTimeInCycles(100)
)

// MMU owns the process registry and the TranslationCache, and holds a
// reference to the FrameTable it shares with every registered process.
type MMU struct {
	pageSize uint64
	frames   *frame.Table
	cache    *translationcache.Cache
	fit      heap.FitStrategy

	processes map[sim.PID]*vm.Process
}

// New creates an MMU backed by frames, with a translation cache of the
// given capacity, using fit for every process's heap allocator.
func New(pageSize uint64, frames *frame.Table, cacheCapacity int, fit heap.FitStrategy) *MMU {
	return &MMU{
		pageSize:  pageSize,
		frames:    frames,
		cache:     translationcache.New(cacheCapacity),
		fit:       fit,
		processes: make(map[sim.PID]*vm.Process),
	}
}

// RegisterProcess creates a Process with a heap over [heapBase,
// heapBase+heapSize) and adds it to the registry.
func (m *MMU) RegisterProcess(pid sim.PID, heapBase, heapSize uint64) error {
	if _, ok := m.processes[pid]; ok {
		return fmt.Errorf("mmu: register %d: %w", pid, vm.ErrDuplicatePid)
	}
	m.processes[pid] = vm.NewProcess(pid, heapBase, heapSize, m.fit)
	return nil
}

// UnregisterProcess flushes the translation cache for pid, clears its
// page table, and removes it from the registry. Unknown pids are a
// no-op: frames the process held are left occupied, reclaimed lazily by
// LRU under pressure.
func (m *MMU) UnregisterProcess(pid sim.PID) {
	p, ok := m.processes[pid]
	if !ok {
		return
	}
	m.cache.FlushProcess(translationcache.PID(pid))
	p.ClearPageTable()
	delete(m.processes, pid)
}

// Process returns the registered Process for pid, or ErrUnknownPid.
func (m *MMU) Process(pid sim.PID) (*vm.Process, error) {
	p, ok := m.processes[pid]
	if !ok {
		return nil, fmt.Errorf("mmu: %d: %w", pid, vm.ErrUnknownPid)
	}
	return p, nil
}

// Access runs the translation pipeline for pid's access to vaddr,
// returning the outcome and the latency it charges. No frame allocation
// happens on a fault; the caller schedules a future pagein completion.
func (m *MMU) Access(pid sim.PID, vaddr uint64) (AccessResult, sim.VTimeInCycles, vm.VPN, error) {
	p, err := m.Process(pid)
	if err != nil {
		return PageFault, 0, 0, err
	}

	vpn := vm.VPN(vaddr / m.pageSize)

	if fid, ok := m.cache.Lookup(translationcache.PID(pid), uint64(vpn)); ok {
		_ = fid
		return Hit, LatencyCacheHit, vpn, nil
	}

	if p.HasMapping(vpn) {
		pte := p.GetPTE(vpn)
		m.cache.Insert(translationcache.PID(pid), uint64(vpn), translationcache.FrameID(pte.FrameID))
		return Hit, LatencyPageTableHit, vpn, nil
	}

	return PageFault, LatencyPageFault, vpn, nil
}

// CompletePagein allocates a frame for (pid, vpn), evicting the LRU
// victim if necessary, and restores the cross-process eviction
// invariant: after this call, no other process's page table points at
// the evicted frame and no stale TranslationCache entry survives for it.
func (m *MMU) CompletePagein(pid sim.PID, vpn vm.VPN, now sim.VTimeInCycles) error {
	p, err := m.Process(pid)
	if err != nil {
		return err
	}

	result, err := m.frames.Allocate(frame.PID(pid), uint64(vpn), frame.Cycle(now))
	if err != nil {
		return fmt.Errorf("mmu: complete_pagein(%d,%d): %w", pid, vpn, err)
	}

	if result.Evicted {
		if victim, ok := m.processes[sim.PID(result.EvictedPID)]; ok {
			victim.UnmapPage(vm.VPN(result.EvictedVPN))
		}
		m.cache.Invalidate(translationcache.PID(result.EvictedPID), result.EvictedVPN)
	}

	p.MapPage(vpn, vm.FrameID(result.FrameID))
	m.cache.Insert(translationcache.PID(pid), uint64(vpn), translationcache.FrameID(result.FrameID))
	return nil
}

// Cache exposes the translation cache for metrics reporting.
func (m *MMU) Cache() *translationcache.Cache { return m.cache }

// Frames exposes the frame table for metrics reporting.
func (m *MMU) Frames() *frame.Table { return m.frames }
