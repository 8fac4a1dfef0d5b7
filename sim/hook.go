package sim

// HookPos identifies a site in the engine's dispatch loop where a Hook may
// be invoked.
type HookPos struct {
	Name string
}

// HookPosBeforeEvent fires immediately before an event is handled.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent fires immediately after an event is handled.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookCtx carries the information available at a hook site.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   *Event
}

// Hookable is an object that accepts Hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// Hook is invoked by a Hookable at the positions it defines. The trace
// writer and the metrics recorder are not driven by hooks; the event loop
// and Simulation.Summarize call them directly.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements Hookable; embed it to pick up hook bookkeeping.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls every registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
