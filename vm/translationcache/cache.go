// Package translationcache implements the bounded FIFO translation
// cache that sits in front of each process's page table. It is deliberately
// the minimum policy — FIFO, not LRU — that still exercises the
// eviction/invalidation coupling with the page table and frame table;
// a referenced bit is carried on each entry so a future CLOCK policy can
// be swapped in without changing the entry shape.
package translationcache

// PID mirrors sim.PID's underlying type without importing sim.
type PID uint32

// FrameID mirrors frame.ID's underlying type without importing frame.
type FrameID int

type entry struct {
	pid        PID
	vpn        uint64
	frameID    FrameID
	referenced bool
}

// Cache is a bounded, FIFO-replacement translation cache tagged by
// (pid, vpn).
type Cache struct {
	capacity int
	entries  []entry

	hits   uint64
	misses uint64
}

// New creates a Cache holding at most capacity entries.
func New(capacity int) *Cache {
	return &Cache{capacity: capacity}
}

// Lookup scans the cache for (pid, vpn). A hit increments Hits and
// returns the mapped frame; a miss increments Misses. Lookup never
// reorders entries — a CLOCK or LRU policy would, FIFO does not.
func (c *Cache) Lookup(pid PID, vpn uint64) (FrameID, bool) {
	for i := range c.entries {
		if c.entries[i].pid == pid && c.entries[i].vpn == vpn {
			c.hits++
			c.entries[i].referenced = true
			return c.entries[i].frameID, true
		}
	}
	c.misses++
	return 0, false
}

// Insert records (pid, vpn) -> frameID. If the pair is already present,
// its frame is updated in place with no reordering. Otherwise, if the
// cache is at capacity, the oldest entry is evicted before the new one
// is appended at the back.
func (c *Cache) Insert(pid PID, vpn uint64, frameID FrameID) {
	for i := range c.entries {
		if c.entries[i].pid == pid && c.entries[i].vpn == vpn {
			c.entries[i].frameID = frameID
			return
		}
	}
	if c.capacity <= 0 {
		return
	}
	if len(c.entries) >= c.capacity {
		c.entries = c.entries[1:]
	}
	c.entries = append(c.entries, entry{pid: pid, vpn: vpn, frameID: frameID})
}

// FlushProcess removes every entry belonging to pid, preserving the
// relative order of the survivors.
func (c *Cache) FlushProcess(pid PID) {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.pid != pid {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

// Invalidate removes the single (pid, vpn) entry, if present.
func (c *Cache) Invalidate(pid PID, vpn uint64) {
	for i := range c.entries {
		if c.entries[i].pid == pid && c.entries[i].vpn == vpn {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// FlushAll empties the cache. Hit/miss counters are untouched.
func (c *Cache) FlushAll() {
	c.entries = nil
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int { return len(c.entries) }

// Hits returns the cumulative hit count.
func (c *Cache) Hits() uint64 { return c.hits }

// Misses returns the cumulative miss count.
func (c *Cache) Misses() uint64 { return c.misses }
