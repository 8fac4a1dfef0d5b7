package vm

import "errors"

// ErrDuplicatePid is returned by any registry (MMU, Scheduler) when a pid
// that is already registered is registered again.
var ErrDuplicatePid = errors.New("vm: duplicate pid")

// ErrUnknownPid is returned by any registry when an operation names a
// pid that is not currently registered.
var ErrUnknownPid = errors.New("vm: unknown pid")
