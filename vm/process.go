package vm

import (
	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/vm/heap"
)

// Process owns one address space: its page table, its blocking state, and
// the heap allocator carved out of its virtual range. It has no notion of
// physical memory; the MMU and FrameTable are what give its mappings
// meaning.
type Process struct {
	PID   sim.PID
	state ProcessState

	pageTable  map[VPN]PageTableEntry
	blockedVPN *VPN

	heap *heap.Allocator
}

// NewProcess creates a Process with an empty page table and a heap
// allocator over [heapBase, heapBase+heapSize).
func NewProcess(pid sim.PID, heapBase, heapSize uint64, strategy heap.FitStrategy) *Process {
	return &Process{
		PID:       pid,
		state:     StateNew,
		pageTable: make(map[VPN]PageTableEntry),
		heap:      heap.NewAllocator(heapBase, heapSize, strategy),
	}
}

// State returns the process's current lifecycle state.
func (p *Process) State() ProcessState {
	return p.state
}

// SetState transitions the process to s. The scheduler is the only caller
// that should drive this; Process itself never decides its own state
// except via BlockOnPage.
func (p *Process) SetState(s ProcessState) {
	p.state = s
}

// HasMapping reports whether vpn has a valid page-table entry.
func (p *Process) HasMapping(vpn VPN) bool {
	pte, ok := p.pageTable[vpn]
	return ok && pte.Valid
}

// GetPTE returns vpn's page-table entry, or the zero-value invalid entry
// if vpn was never mapped.
func (p *Process) GetPTE(vpn VPN) PageTableEntry {
	pte, ok := p.pageTable[vpn]
	if !ok {
		return PageTableEntry{Valid: false, FrameID: NoFrame}
	}
	return pte
}

// MapPage records that vpn now translates to frameID.
func (p *Process) MapPage(vpn VPN, frameID FrameID) {
	p.pageTable[vpn] = PageTableEntry{Valid: true, FrameID: frameID}
}

// UnmapPage invalidates vpn's entry without removing it, so a later
// GetPTE can still distinguish "once mapped, now evicted" from "never
// mapped" if a caller cares to.
func (p *Process) UnmapPage(vpn VPN) {
	if _, ok := p.pageTable[vpn]; ok {
		p.pageTable[vpn] = PageTableEntry{Valid: false, FrameID: NoFrame}
	}
}

// ClearPageTable empties the page table, used on process exit.
func (p *Process) ClearPageTable() {
	p.pageTable = make(map[VPN]PageTableEntry)
}

// BlockOnPage transitions the process to BLOCKED, waiting on vpn's pagein.
func (p *Process) BlockOnPage(vpn VPN) {
	v := vpn
	p.blockedVPN = &v
	p.state = StateBlocked
}

// ClearBlock forgets which vpn the process was blocked on. The state
// transition back to READY is the scheduler's responsibility.
func (p *Process) ClearBlock() {
	p.blockedVPN = nil
}

// BlockedVPN returns the vpn the process is waiting on, if it is BLOCKED.
func (p *Process) BlockedVPN() (VPN, bool) {
	if p.blockedVPN == nil {
		return 0, false
	}
	return *p.blockedVPN, true
}

// HeapAlloc delegates to the process's heap allocator.
func (p *Process) HeapAlloc(size uint64) (uint64, bool) {
	return p.heap.Alloc(size)
}

// HeapFree delegates to the process's heap allocator.
func (p *Process) HeapFree(addr uint64) error {
	return p.heap.Free(addr)
}

// Heap exposes the process's heap allocator for metrics reporting.
func (p *Process) Heap() *heap.Allocator {
	return p.heap
}
