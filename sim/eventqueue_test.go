package sim_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/memsim/sim"
)

var _ = Describe("EventQueue", func() {
	var queue *sim.EventQueue

	BeforeEach(func() {
		queue = sim.NewEventQueue()
	})

	It("should pop events in ascending time order", func() {
		const numEvents = 200
		for i := 0; i < numEvents; i++ {
			queue.Push(&sim.Event{
				Time: sim.VTimeInCycles(rand.Intn(1000)),
			})
		}

		var last sim.VTimeInCycles
		for i := 0; i < numEvents; i++ {
			evt, err := queue.Pop()
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Time).To(BeNumerically(">=", last))
			last = evt.Time
		}
		Expect(queue.Empty()).To(BeTrue())
	})

	It("should break ties by priority, then pid, then insertion order", func() {
		e1 := &sim.Event{Time: 5, Priority: 1, PID: 1}
		e2 := &sim.Event{Time: 5, Priority: 1, PID: 1}
		e3 := &sim.Event{Time: 5, Priority: 0, PID: 9}
		e4 := &sim.Event{Time: 5, Priority: 1, PID: 0}

		queue.Push(e1)
		queue.Push(e2)
		queue.Push(e3)
		queue.Push(e4)

		first, _ := queue.Pop()
		Expect(first).To(BeIdenticalTo(e3))

		second, _ := queue.Pop()
		Expect(second).To(BeIdenticalTo(e4))

		third, _ := queue.Pop()
		Expect(third).To(BeIdenticalTo(e1))

		fourth, _ := queue.Pop()
		Expect(fourth).To(BeIdenticalTo(e2))
	})

	It("preserves FIFO order for fully identical keys", func() {
		e1 := &sim.Event{Time: 1, Priority: 1, PID: 1, Type: "A"}
		e2 := &sim.Event{Time: 1, Priority: 1, PID: 1, Type: "B"}

		queue.Push(e1)
		queue.Push(e2)

		first, _ := queue.Pop()
		Expect(first.Type).To(Equal(sim.EventType("A")))

		second, _ := queue.Pop()
		Expect(second.Type).To(Equal(sim.EventType("B")))
	})

	It("fails to pop or peek an empty queue", func() {
		_, err := queue.Pop()
		Expect(err).To(MatchError(sim.ErrEmptyQueue))

		_, err = queue.Top()
		Expect(err).To(MatchError(sim.ErrEmptyQueue))
	})

	It("assigns sequence numbers starting at 1", func() {
		Expect(queue.NextSeq()).To(Equal(uint64(1)))

		evt := &sim.Event{Time: 1}
		queue.Push(evt)
		Expect(evt.Seq).To(Equal(uint64(1)))
		Expect(queue.NextSeq()).To(Equal(uint64(2)))
	})

	It("does not reassign a sequence number that is already set", func() {
		evt := &sim.Event{Time: 1, Seq: 42}
		queue.Push(evt)
		Expect(evt.Seq).To(Equal(uint64(42)))
	})

	It("PushEvent always assigns a fresh sequence number", func() {
		evt := queue.PushEvent(3, 4, sim.PID(7), sim.EventMalloc, []string{"100"}, "raw", nil)
		Expect(evt.Seq).To(Equal(uint64(1)))
		Expect(evt.Type).To(Equal(sim.EventMalloc))
	})

	It("clear empties the queue without resetting the sequence counter", func() {
		queue.Push(&sim.Event{Time: 1})
		queue.Push(&sim.Event{Time: 2})
		Expect(queue.NextSeq()).To(Equal(uint64(3)))

		queue.Clear()
		Expect(queue.Empty()).To(BeTrue())
		Expect(queue.NextSeq()).To(Equal(uint64(3)))
	})
})
