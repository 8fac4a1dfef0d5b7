package mmu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/memsim/vm"
	"github.com/archlab/memsim/vm/frame"
	"github.com/archlab/memsim/vm/heap"
	"github.com/archlab/memsim/vm/mmu"
)

const pageSize = 4096

var _ = Describe("MMU", func() {
	var m *mmu.MMU

	BeforeEach(func() {
		m = mmu.New(pageSize, frame.NewTable(2), 8, heap.FirstFit)
	})

	It("registers a process and rejects a duplicate pid", func() {
		Expect(m.RegisterProcess(1, 0x10000, 0x1000)).To(Succeed())
		Expect(m.RegisterProcess(1, 0x20000, 0x1000)).To(MatchError(vm.ErrDuplicatePid))
	})

	It("fails Access for an unregistered pid", func() {
		_, _, _, err := m.Access(42, 0)
		Expect(err).To(MatchError(vm.ErrUnknownPid))
	})

	It("returns a page fault at 100 cycles for an unmapped vpn", func() {
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())

		result, latency, vpn, err := m.Access(1, pageSize*3)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(mmu.PageFault))
		Expect(latency).To(Equal(mmu.LatencyPageFault))
		Expect(vpn).To(Equal(vm.VPN(3)))
	})

	It("charges 5 cycles on a page-table hit and caches the translation", func() {
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())
		Expect(m.CompletePagein(1, 3, 10)).To(Succeed())

		// first access after pagein is a cache miss but a page-table hit
		m.Cache().FlushAll()
		result, latency, _, err := m.Access(1, pageSize*3)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(mmu.Hit))
		Expect(latency).To(Equal(mmu.LatencyPageTableHit))
	})

	It("charges 1 cycle on a translation-cache hit", func() {
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())
		Expect(m.CompletePagein(1, 3, 10)).To(Succeed())

		result, latency, _, err := m.Access(1, pageSize*3)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(mmu.Hit))
		Expect(latency).To(Equal(mmu.LatencyCacheHit))
	})

	It("maintains the cross-process eviction invariant on complete_pagein", func() {
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())
		Expect(m.RegisterProcess(2, 0, 0x1000)).To(Succeed())

		Expect(m.CompletePagein(1, 10, 1)).To(Succeed())
		Expect(m.CompletePagein(1, 11, 2)).To(Succeed())
		// table has capacity 2: this evicts pid 1's vpn 10
		Expect(m.CompletePagein(2, 20, 3)).To(Succeed())

		p1, err := m.Process(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(p1.HasMapping(10)).To(BeFalse())

		_, hit := m.Cache().Lookup(1, 10)
		Expect(hit).To(BeFalse())
	})

	It("tolerates an evicted owner that has since unregistered", func() {
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())
		Expect(m.RegisterProcess(2, 0, 0x1000)).To(Succeed())

		Expect(m.CompletePagein(1, 10, 1)).To(Succeed())
		m.UnregisterProcess(1)
		Expect(m.RegisterProcess(1, 0, 0x1000)).To(Succeed())

		Expect(m.CompletePagein(1, 11, 2)).To(Succeed())
		Expect(func() {
			_ = m.CompletePagein(2, 20, 3)
		}).NotTo(Panic())
	})

	It("unregistering an unknown pid is a no-op", func() {
		Expect(func() { m.UnregisterProcess(999) }).NotTo(Panic())
	})
})
