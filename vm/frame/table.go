// Package frame implements the physical frame table: a fixed-size array
// of frames shared across all processes, with LRU eviction. It is the
// only component in the simulator whose mutation crosses process
// boundaries, so callers are expected to serialize access through a
// single event loop rather than locking internally.
package frame

import (
	"errors"
	"fmt"
)

// ErrNoFrame is returned by Allocate when no frame could be found, which
// the spec treats as impossible once N >= 1.
var ErrNoFrame = errors.New("frame: no frame available")

// ID addresses a frame by its stable index into the table.
type ID int

// PID is the owning process identifier. It mirrors sim.PID's underlying
// type without importing sim, since frame has no need of the rest of
// that package.
type PID uint32

// Cycle is the simulated-time unit frames are stamped with on touch.
type Cycle uint64

type slot struct {
	occupied bool
	pid      PID
	vpn      uint64
	lastUsed Cycle
}

// Table is the fixed-size physical frame array.
type Table struct {
	frames []slot
}

// NewTable creates a Table with n frames, all initially unoccupied.
func NewTable(n int) *Table {
	return &Table{frames: make([]slot, n)}
}

// Size returns the number of frames in the table.
func (t *Table) Size() int { return len(t.frames) }

// AllocateResult reports the outcome of Allocate: which frame was used,
// and — if occupied — who was evicted to make room.
type AllocateResult struct {
	FrameID    ID
	Evicted    bool
	EvictedPID PID
	EvictedVPN uint64
}

// Allocate assigns a frame to (pid, vpn), preferring any unoccupied
// frame by lowest index; if none is free, it evicts the occupied frame
// with the oldest LastUsed time, breaking ties by lowest index.
func (t *Table) Allocate(pid PID, vpn uint64, now Cycle) (AllocateResult, error) {
	for i := range t.frames {
		if !t.frames[i].occupied {
			t.frames[i] = slot{occupied: true, pid: pid, vpn: vpn, lastUsed: now}
			return AllocateResult{FrameID: ID(i)}, nil
		}
	}

	victim := -1
	for i := range t.frames {
		if victim < 0 || t.frames[i].lastUsed < t.frames[victim].lastUsed {
			victim = i
		}
	}
	if victim < 0 {
		return AllocateResult{}, ErrNoFrame
	}

	result := AllocateResult{
		FrameID:    ID(victim),
		Evicted:    true,
		EvictedPID: t.frames[victim].pid,
		EvictedVPN: t.frames[victim].vpn,
	}
	t.frames[victim] = slot{occupied: true, pid: pid, vpn: vpn, lastUsed: now}
	return result, nil
}

// Touch updates a frame's last-used time, for an access that hits an
// already-mapped page.
func (t *Table) Touch(id ID, now Cycle) error {
	if err := t.checkRange(id); err != nil {
		return err
	}
	t.frames[id].lastUsed = now
	return nil
}

// Free resets a frame to unoccupied.
func (t *Table) Free(id ID) error {
	if err := t.checkRange(id); err != nil {
		return err
	}
	t.frames[id] = slot{}
	return nil
}

// Occupant reports the (pid, vpn) a frame currently holds, if any.
func (t *Table) Occupant(id ID) (pid PID, vpn uint64, occupied bool) {
	if err := t.checkRange(id); err != nil {
		return 0, 0, false
	}
	s := t.frames[id]
	return s.pid, s.vpn, s.occupied
}

func (t *Table) checkRange(id ID) error {
	if int(id) < 0 || int(id) >= len(t.frames) {
		return fmt.Errorf("frame: frame id %d out of range [0,%d)", id, len(t.frames))
	}
	return nil
}
