package simulation_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/simulation"
)

var _ = Describe("EventLoop error propagation", func() {
	It("propagates an UnknownPid error for a FREE on an unregistered process", func() {
		s := build(2)
		trc := "0, 1, FREE, 0x1000\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(HaveOccurred())
	})

	It("propagates a DuplicatePid error for a second PROC_START with the same pid", func() {
		s := build(2)
		trc := "" +
			"0, 1, PROC_START, 0x1000, 0x9000\n" +
			"0, 1, PROC_START, 0x2000, 0xa000\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(HaveOccurred())
	})

	It("logs and continues past a MALLOC that does not fit", func() {
		s := build(2)
		trc := "" +
			"0, 1, PROC_START, 0x10000, 0x10010\n" + // 16-byte heap
			"1, 1, MALLOC, 1000\n" +
			"2, 1, PROC_EXIT\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(Succeed())
		Expect(s.Metrics().AllocatedBytes()).To(Equal(uint64(0)))
	})

	It("charges a page-table hit as a cache miss, not a cache hit", func() {
		cfg := config.MakeBuilder().WithNumFrames(3).WithPageinLatency(5).WithTLBSize(1).Build()
		s, err := simulation.MakeBuilder(cfg).WithoutRecorder().Build()
		Expect(err).NotTo(HaveOccurred())

		trc := "" +
			"0, 1, PROC_START, 0x1000, 0x9000\n" +
			"1, 1, ACCESS, 0x1000\n" + // fault on vpn 1
			"6, 1, ACCESS, 0x1000\n" + // TLB hit on vpn 1
			"7, 1, ACCESS, 0x2000\n" + // fault on vpn 2, evicts vpn 1 from the 1-entry TLB on its pagein
			"12, 1, ACCESS, 0x1000\n" // TLB miss, page-table hit on vpn 1
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(Succeed())

		Expect(s.Metrics().PageFaults()).To(Equal(uint64(2)))
		Expect(s.Metrics().CacheHits()).To(Equal(uint64(1)))
		Expect(s.Metrics().CacheMisses()).To(Equal(uint64(3)))
	})

	It("writes an execution trace file when one is configured", func() {
		cfg := config.MakeBuilder().WithNumFrames(2).WithPageinLatency(10).Build()
		tmp := GinkgoT().TempDir() + "/exec.csv"

		s, err := simulation.MakeBuilder(cfg).WithoutRecorder().WithTraceOutput(tmp).Build()
		Expect(err).NotTo(HaveOccurred())

		trc := "0, 1, PROC_START, 0x1000, 0x9000\n1, 1, ACCESS, 0x1000\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))
		Expect(s.Run()).To(Succeed())

		s.Summarize()
	})
})
