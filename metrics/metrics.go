// Package metrics collects simulation statistics across subsystems. It
// does not know about MMU, TLB, FrameTable, or Scheduler internals —
// callers publish snapshots into it.
package metrics

import "sort"

// Metrics aggregates the heap, translation-cache, and access-latency
// statistics observable over a run. It is not safe for concurrent use;
// the event loop is single-threaded.
type Metrics struct {
	totalHeapSize      uint64
	allocatedBytes     uint64
	freeBytes          uint64
	largestFreeBlock   uint64
	internalFragBytes  uint64

	cacheHits   uint64
	cacheMisses uint64

	latencies []uint64

	pageFaults uint64
}

// New creates an empty Metrics.
func New() *Metrics {
	return &Metrics{}
}

// HeapSnapshot is what UpdateHeap accepts: the live totals from a
// process's heap allocator at the moment a MALLOC/FREE event completed.
type HeapSnapshot struct {
	TotalHeapSize     uint64
	AllocatedBytes    uint64
	FreeBytes         uint64
	LargestFreeBlock  uint64
	InternalFragBytes uint64
}

// UpdateHeap overwrites the last-published heap snapshot. The spec
// tracks a single current snapshot rather than per-process history;
// callers publish after every MALLOC/FREE.
func (m *Metrics) UpdateHeap(s HeapSnapshot) {
	m.totalHeapSize = s.TotalHeapSize
	m.allocatedBytes = s.AllocatedBytes
	m.freeBytes = s.FreeBytes
	m.largestFreeBlock = s.LargestFreeBlock
	m.internalFragBytes = s.InternalFragBytes
}

// TotalHeapSize, AllocatedBytes, FreeBytes, LargestFreeBlock, and
// InternalFragmentation expose the last-published heap snapshot.
func (m *Metrics) TotalHeapSize() uint64     { return m.totalHeapSize }
func (m *Metrics) AllocatedBytes() uint64    { return m.allocatedBytes }
func (m *Metrics) FreeBytes() uint64         { return m.freeBytes }
func (m *Metrics) LargestFreeBlock() uint64  { return m.largestFreeBlock }
func (m *Metrics) InternalFragmentation() uint64 { return m.internalFragBytes }

// ExternalFragmentation recomputes 1 - largest/free from the last
// published snapshot, 0 if there are no free bytes.
func (m *Metrics) ExternalFragmentation() float64 {
	if m.freeBytes == 0 {
		return 0
	}
	return 1 - float64(m.largestFreeBlock)/float64(m.freeBytes)
}

// RecordCacheHit and RecordCacheMiss count translation-cache outcomes.
func (m *Metrics) RecordCacheHit()  { m.cacheHits++ }
func (m *Metrics) RecordCacheMiss() { m.cacheMisses++ }

// CacheHits, CacheMisses, and CacheHitRate report the translation
// cache's cumulative hit/miss counts.
func (m *Metrics) CacheHits() uint64   { return m.cacheHits }
func (m *Metrics) CacheMisses() uint64 { return m.cacheMisses }
func (m *Metrics) CacheHitRate() float64 {
	total := m.cacheHits + m.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(m.cacheHits) / float64(total)
}

// RecordAccessLatency appends a per-access latency sample in cycles.
func (m *Metrics) RecordAccessLatency(cycles uint64) {
	m.latencies = append(m.latencies, cycles)
}

// RecordPageFault increments the page-fault counter.
func (m *Metrics) RecordPageFault() { m.pageFaults++ }

// PageFaults returns the cumulative page-fault count.
func (m *Metrics) PageFaults() uint64 { return m.pageFaults }

// percentile returns the p-th percentile (0..1) of the recorded latency
// samples, 0 if none have been recorded.
func (m *Metrics) percentile(p float64) uint64 {
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]uint64, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// LatencyP50, LatencyP90, and LatencyP99 report access-latency
// percentiles in cycles.
func (m *Metrics) LatencyP50() uint64 { return m.percentile(0.50) }
func (m *Metrics) LatencyP90() uint64 { return m.percentile(0.90) }
func (m *Metrics) LatencyP99() uint64 { return m.percentile(0.99) }
