package simulation_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/simulation"
)

func build(numFrames int) *simulation.Simulation {
	cfg := config.MakeBuilder().
		WithNumFrames(numFrames).
		WithPageinLatency(10).
		WithTLBSize(4).
		Build()

	s, err := simulation.MakeBuilder(cfg).WithoutRecorder().Build()
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulation end-to-end scenarios", func() {
	It("Scenario A: basic fault and pagein", func() {
		s := build(2)
		trc := "0, 1, PROC_START, 0x1000, 0x9000\n1, 1, ACCESS, 0x1000\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(Succeed())

		Expect(s.Engine().CurrentTime()).To(BeNumerically(">=", 11))
		Expect(s.Metrics().PageFaults()).To(Equal(uint64(1)))
	})

	It("Scenario B: cross-process eviction forces a second fault", func() {
		s := build(1)
		trc := "" +
			"0, 1, PROC_START, 0x1000, 0x9000\n" +
			"0, 2, PROC_START, 0x1000, 0x9000\n" +
			"1, 1, ACCESS, 0x1000\n" +
			"20, 2, ACCESS, 0x1000\n" +
			"31, 1, ACCESS, 0x1000\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(Succeed())

		// pid 1 faults at t=1 (pagein t=11); pid 2 faults at t=20 and evicts
		// pid 1's frame (pagein t=30); pid 1's re-access after t=30 faults
		// again since its mapping was invalidated.
		Expect(s.Metrics().PageFaults()).To(Equal(uint64(3)))
	})

	It("Scenario C: MALLOCs add up their 8-byte-aligned sizes", func() {
		s := build(2)
		trc := "" +
			"0, 1, PROC_START, 0x10000, 0x20000\n" +
			"1, 1, MALLOC, 100\n" +
			"2, 1, MALLOC, 200\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))
		Expect(s.Run()).To(Succeed())

		Expect(s.Metrics().AllocatedBytes()).To(Equal(uint64(104 + 200)))
	})

	It("Scenario F: a stale PAGEIN_COMPLETE after PROC_EXIT is tolerated", func() {
		s := build(2)
		trc := "" +
			"0, 3, PROC_START, 0x1000, 0x9000\n" +
			"1, 3, ACCESS, 0x1000\n" +
			"5, 3, PROC_EXIT\n"
		Expect(s.LoadTrace(strings.NewReader(trc))).To(Equal(0))

		Expect(s.Run()).To(Succeed())
	})
})
