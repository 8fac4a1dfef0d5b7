package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archlab/memsim/sim"
)

type recordingHandler struct {
	seen []sim.VTimeInCycles
}

func (h *recordingHandler) Handle(evt *sim.Event) error {
	h.seen = append(h.seen, evt.Time)
	return nil
}

var _ = Describe("SerialEngine", func() {
	var (
		engine  *sim.SerialEngine
		handler *recordingHandler
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		handler = &recordingHandler{}
	})

	It("dispatches events in EventKey order and advances the clock", func() {
		engine.Schedule(sim.NewEvent(10, 4, 1, sim.EventMalloc, nil, handler))
		engine.Schedule(sim.NewEvent(1, 4, 1, sim.EventAccess, nil, handler))
		engine.Schedule(sim.NewEvent(5, 4, 1, sim.EventFree, nil, handler))

		Expect(engine.Run()).To(Succeed())
		Expect(handler.seen).To(Equal([]sim.VTimeInCycles{1, 5, 10}))
		Expect(engine.CurrentTime()).To(Equal(sim.VTimeInCycles(10)))
	})

	It("panics when an event is scheduled before the current time", func() {
		Expect(func() {
			engine.Schedule(sim.NewEvent(5, 0, 1, sim.EventTimer, nil, handler))
			_ = engine.Run()
			engine.Schedule(sim.NewEvent(1, 0, 1, sim.EventTimer, nil, handler))
		}).To(Panic())
	})

	It("invokes before/after hooks around every dispatched event", func() {
		var positions []string
		engine.AcceptHook(hookFunc(func(ctx sim.HookCtx) {
			positions = append(positions, ctx.Pos.Name)
		}))

		engine.Schedule(sim.NewEvent(1, 0, 1, sim.EventTimer, nil, handler))
		Expect(engine.Run()).To(Succeed())
		Expect(positions).To(Equal([]string{"BeforeEvent", "AfterEvent"}))
	})

	It("propagates a handler error out of Run", func() {
		boom := &erroringHandler{}
		engine.Schedule(sim.NewEvent(1, 0, 1, sim.EventTimer, nil, boom))
		Expect(engine.Run()).To(MatchError("boom"))
	})
})

type hookFunc func(sim.HookCtx)

func (f hookFunc) Func(ctx sim.HookCtx) { f(ctx) }

type erroringHandler struct{}

func (h *erroringHandler) Handle(evt *sim.Event) error {
	return errBoom
}

var errBoom = stringError("boom")

type stringError string

func (e stringError) Error() string { return string(e) }
