// Package hooking lets instrumentation observe the scheduling engine without
// changing engine code. A hookable domain raises a HookCtx at well-known
// positions and every registered hook sees it.
package hooking

// HookPos marks a location in a domain's lifecycle where hooks fire.
// Positions are compared by pointer identity.
type HookPos struct {
	Name string
}

// HookCtx carries the information about the site that raised a hook.
type HookCtx struct {
	// Domain is the hookable object raising the hook.
	Domain Hookable

	// Pos identifies where in the domain's lifecycle the hook fires.
	Pos *HookPos

	// Item is the primary subject at the hook site (a task, an event id).
	Item any

	// Detail holds optional auxiliary data. Hook sites may leave it nil.
	Detail any
}

// A Hook is a small piece of program invoked by a hookable domain.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable is an object that accepts hooks.
//
// Hooks must be attached during single-threaded setup, before the domain
// starts running, and stay attached for the domain's lifetime. There is no
// removal; a hook that should stop reacting has to disable itself.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
	InvokeHook(ctx HookCtx)
}

// HookableBase implements Hookable and is meant to be embedded.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, registered := range h.hooks {
		if registered == hook {
			panic("hooking: hook registered twice")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// InvokeHook calls every registered hook with ctx, in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
