// Package sched implements the cooperative, single-running-process
// scheduler: a FIFO ready queue with no time slicing. A process runs
// until it blocks on a page fault or terminates.
package sched

import (
	"fmt"

	"github.com/archlab/memsim/sim"
	"github.com/archlab/memsim/vm"
)

// Scheduler tracks every known pid's lifecycle state and the single
// currently running pid, if any.
type Scheduler struct {
	states  map[sim.PID]vm.ProcessState
	ready   []sim.PID
	current *sim.PID
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{states: make(map[sim.PID]vm.ProcessState)}
}

// AddProcess enters pid into READY and appends it to the ready queue.
func (s *Scheduler) AddProcess(pid sim.PID) error {
	if _, ok := s.states[pid]; ok {
		return fmt.Errorf("sched: add %d: %w", pid, vm.ErrDuplicatePid)
	}
	s.states[pid] = vm.StateReady
	s.ready = append(s.ready, pid)
	return nil
}

// ScheduleNext returns the currently running pid if one is set;
// otherwise it pops the ready queue, skipping stale entries (pids whose
// state is no longer READY), promotes the first READY pid to RUNNING,
// and returns it. It returns ok=false if no pid is runnable.
func (s *Scheduler) ScheduleNext() (pid sim.PID, ok bool) {
	if s.current != nil {
		return *s.current, true
	}
	for len(s.ready) > 0 {
		next := s.ready[0]
		s.ready = s.ready[1:]
		if s.states[next] != vm.StateReady {
			continue
		}
		s.states[next] = vm.StateRunning
		s.current = &next
		return next, true
	}
	return 0, false
}

// BlockCurrent transitions the running pid to BLOCKED and clears
// current. It fails if no process is currently running.
func (s *Scheduler) BlockCurrent() error {
	if s.current == nil {
		return fmt.Errorf("sched: block_current: no process is running")
	}
	pid := *s.current
	s.states[pid] = vm.StateBlocked
	s.current = nil
	return nil
}

// WakeProcess transitions pid from BLOCKED to READY and appends it to
// the ready queue. Waking a pid that is not BLOCKED is an idempotent
// no-op (a spurious wake); waking an unknown pid fails.
func (s *Scheduler) WakeProcess(pid sim.PID) error {
	state, ok := s.states[pid]
	if !ok {
		return fmt.Errorf("sched: wake %d: %w", pid, vm.ErrUnknownPid)
	}
	if state != vm.StateBlocked {
		return nil
	}
	s.states[pid] = vm.StateReady
	s.ready = append(s.ready, pid)
	return nil
}

// TerminateProcess marks pid TERMINATED, removes it from the ready
// queue, and clears current if it was the running pid.
func (s *Scheduler) TerminateProcess(pid sim.PID) {
	s.states[pid] = vm.StateTerminated

	kept := s.ready[:0]
	for _, p := range s.ready {
		if p != pid {
			kept = append(kept, p)
		}
	}
	s.ready = kept

	if s.current != nil && *s.current == pid {
		s.current = nil
	}
}

// HasRunnable reports whether a process is running or the ready queue
// is nonempty.
func (s *Scheduler) HasRunnable() bool {
	return s.current != nil || len(s.ready) > 0
}

// Current returns the running pid, if any.
func (s *Scheduler) Current() (sim.PID, bool) {
	if s.current == nil {
		return 0, false
	}
	return *s.current, true
}

// State returns pid's tracked lifecycle state.
func (s *Scheduler) State(pid sim.PID) (vm.ProcessState, bool) {
	st, ok := s.states[pid]
	return st, ok
}
