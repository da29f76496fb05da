package cps

import "fmt"

// A Context binds a running task body to the scheduler that owns it. Every
// suspension goes through the Context, so which scheduler serves a wait is
// always explicit; there is no process-global "current scheduler".
//
// A Context is only valid inside the body it was handed to. Passing it to
// helper functions called from the body is fine; storing it and resuming use
// from another task is not.
type Context struct {
	sched *Scheduler
	cont  *continuation
}

// Scheduler returns the owning scheduler, or nil for a task spawned without
// one.
func (ctx *Context) Scheduler() *Scheduler {
	return ctx.sched
}

// Now returns the owning scheduler's simulated time, or zero without one.
func (ctx *Context) Now() VTimeInMs {
	if ctx.sched == nil {
		return 0
	}
	return ctx.sched.Now()
}

// Delay suspends the task for the given simulated duration. A delay of zero
// or less returns immediately without touching the scheduler. Without an
// owning scheduler the delay degrades to zero: the task continues at once.
func (ctx *Context) Delay(d VTimeInMs) {
	if d <= 0 {
		return
	}
	if ctx.sched == nil {
		return
	}

	ctx.sched.ScheduleAfter(d, ctx.cont)
	ctx.cont.park()
}

// WaitEvent suspends the task until the event fires, discarding any payload.
// It always suspends; an event that fired before this call is not seen.
// Without an owning scheduler the task continues at once.
func (ctx *Context) WaitEvent(id EventID) {
	if ctx.sched == nil {
		return
	}

	c := ctx.cont
	ctx.sched.RegisterEventHandler(id, func(any) {
		c.resumeWith(nil)
	})
	c.park()
}

// WaitEventValue suspends the task until the event fires and returns the
// payload it carried, converted to T. A firing without payload yields the
// zero T. Triggering the event with a payload of any other type panics at
// the trigger call: payload typing is part of the event's contract and a
// mismatch is a programming error, not a recoverable condition.
//
// Without an owning scheduler the task continues at once with the zero T.
func WaitEventValue[T any](ctx *Context, id EventID) T {
	var zero T
	if ctx.sched == nil {
		return zero
	}

	c := ctx.cont
	ctx.sched.RegisterEventHandler(id, func(data any) {
		if data != nil {
			if _, ok := data.(T); !ok {
				panic(fmt.Sprintf(
					"cps: event %d triggered with %T, waiter expects %T",
					id, data, zero))
			}
		}
		c.resumeWith(data)
	})

	got := c.park()
	if got == nil {
		return zero
	}

	return got.(T)
}
