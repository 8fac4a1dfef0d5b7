// Package trace parses the CSV event trace that drives a simulation and
// writes the execution trace the simulation produces, in the CSV shape
// the rest of the corpus uses for its task tracers.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/archlab/memsim/sim"
)

// PriorityForType is the enqueue-priority table for trace event types.
// Lower numbers dispatch earlier at the same simulated time. Unknown
// types fall back to priority 5. This table is the single source of
// truth the parser and any future trace-producing component should
// share, rather than each hardcoding its own copy.
var PriorityForType = map[sim.EventType]int{
	sim.EventPageinComplete: 0,
	sim.EventIOComplete:     0,
	sim.EventWakeup:         1,
	sim.EventTimer:          2,
	sim.EventAccess:         3,
	sim.EventMalloc:         4,
	sim.EventFree:           4,
	sim.EventProcStart:      4,
	sim.EventProcExit:       4,
	sim.EventSleep:          4,
	sim.EventIOStart:        4,
}

const defaultPriority = 5

func priorityForType(t sim.EventType) int {
	if p, ok := PriorityForType[t]; ok {
		return p
	}
	return defaultPriority
}

// LoadInto parses r as a trace and pushes every well-formed line into q,
// binding handler to each pushed event so the engine dispatches it.
// Malformed lines are logged to stderr via log and skipped; they never
// abort the load. It returns the number of lines skipped.
func LoadInto(r io.Reader, q *sim.EventQueue, handler sim.Handler) (skipped int) {
	scanner := bufio.NewScanner(r)
	lineno := 0

	for scanner.Scan() {
		lineno++
		raw := scanner.Text()

		line := raw
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		toks := splitCSVLine(line)
		if len(toks) < 3 {
			log.Printf("trace: malformed line %d: %q", lineno, raw)
			skipped++
			continue
		}

		ts, err := ParseU64(toks[0])
		if err != nil {
			log.Printf("trace: invalid timestamp at line %d: %v", lineno, err)
			skipped++
			continue
		}

		pid, err := strconv.ParseUint(toks[1], 10, 32)
		if err != nil {
			log.Printf("trace: invalid pid at line %d: %v", lineno, err)
			skipped++
			continue
		}

		evType := sim.EventType(toks[2])
		args := toks[3:]

		q.PushEvent(sim.VTimeInCycles(ts), priorityForType(evType), sim.PID(pid), evType, args, raw, handler)
	}

	if err := scanner.Err(); err != nil {
		log.Printf("trace: read error: %v", err)
	}
	return skipped
}

// splitCSVLine splits on commas with no quoting, trimming whitespace
// around each field, mirroring the trace format's simplicity.
func splitCSVLine(line string) []string {
	raw := strings.Split(line, ",")
	out := make([]string, len(raw))
	for i, f := range raw {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// ParseU64 accepts decimal or 0x-prefixed hexadecimal.
func ParseU64(s string) (uint64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("trace: %q is not a valid integer: %w", s, err)
	}
	return v, nil
}
