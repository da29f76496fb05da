package cps

// A continuation is one suspendable routine, backed by a dedicated goroutine.
// Control is handed back and forth over two unbuffered channels so that at
// any instant exactly one side runs: the routine body, or whoever resumed it.
// Every state access is ordered by a channel handshake, so no locking is
// needed even though the body runs on its own goroutine.
type continuation struct {
	resume chan any      // driver -> body, carries the wake payload
	yield  chan struct{} // body -> driver, signals suspension or completion
	done   bool          // written by the body right before its final yield
}

// killSignal unwinds a continuation goroutine through its deferred handlers.
type killSignal struct{}

// park suspends the calling body until someone resumes it. It returns the
// payload passed to the resumption.
func (c *continuation) park() any {
	c.yield <- struct{}{}

	v := <-c.resume
	if _, killed := v.(killSignal); killed {
		panic(killSignal{})
	}

	return v
}

// resumeWith re-enters the routine at its saved suspension point, delivering
// v, and returns once the routine has suspended again or completed. Calling
// it on a completed continuation is a no-op.
func (c *continuation) resumeWith(v any) {
	if c.done {
		return
	}

	c.resume <- v
	<-c.yield
}

// Resume wakes the routine with no payload.
func (c *continuation) Resume() {
	c.resumeWith(nil)
}

// IsDone reports whether the routine has run to completion.
func (c *continuation) IsDone() bool {
	return c.done
}

// kill unwinds a suspended routine so its goroutine exits. No-op when the
// routine already completed.
func (c *continuation) kill() {
	if c.done {
		return
	}

	c.resume <- killSignal{}
	<-c.yield
}

// A Resumable is the scheduler-facing surface of a suspended routine.
type Resumable interface {
	// Resume re-enters the routine at its saved suspension point. It must be
	// a no-op once the routine has completed.
	Resume()

	// IsDone reports whether the routine has completed.
	IsDone() bool
}

// A TaskFunc is the body of a task. It runs on the driving thread's logical
// control flow and may suspend through the Context it receives.
type TaskFunc func(ctx *Context)

// A Task exclusively owns one running or suspended routine. Exactly one Task
// owns a given routine; sharing the pointer duplicates nothing but invites
// double Kill, which is safe, and double Resume, which is not.
//
// A Task that goes out of scope while still owning an unfinished routine
// leaks that routine's goroutine until the process exits. Call Kill when a
// simulation tears down early, or Detach to hand responsibility to whoever
// guarantees the routine eventually completes.
type Task struct {
	c *continuation
}

// Spawn invokes body immediately, runs it up to its first suspension point
// (or completion), and returns a Task owning it.
//
// s may be nil. A task spawned without a scheduler never actually waits: both
// suspension primitives return immediately with a zero payload. This mirrors
// using an awaitable outside any scheduler context and is almost never what
// a simulation wants.
func Spawn(s *Scheduler, body TaskFunc) *Task {
	ctx := &Context{sched: s}

	return &Task{c: launch(ctx, body)}
}

// launch starts the body eagerly: it returns only once the body has reached
// its first suspension point or completed.
func launch(ctx *Context, body TaskFunc) *continuation {
	c := &continuation{
		resume: make(chan any),
		yield:  make(chan struct{}),
	}
	ctx.cont = c

	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, killed := r.(killSignal); !killed {
					// A fault in a routine body is fatal. Re-raising here
					// crashes the process; nothing else is resumed.
					panic(r)
				}
			}
			c.done = true
			c.yield <- struct{}{}
		}()

		body(ctx)
	}()

	<-c.yield

	return c
}

// Resume resumes the routine iff it is still owned and not completed.
// No-op otherwise.
func (t *Task) Resume() {
	if t.c == nil {
		return
	}
	t.c.resumeWith(nil)
}

// IsDone reports completion. A detached Task reports done.
func (t *Task) IsDone() bool {
	return t.c == nil || t.c.done
}

// Detach releases ownership without terminating the routine. The routine
// keeps whatever wake registrations it holds inside a scheduler; the caller
// must guarantee it eventually completes or accept the leak.
func (t *Task) Detach() {
	t.c = nil
}

// Kill terminates the routine if it is still owned and not completed, then
// releases ownership. Idempotent. This is the teardown path for tasks that
// would otherwise outlive the simulation (typically infinite control loops).
func (t *Task) Kill() {
	if t.c == nil {
		return
	}
	t.c.kill()
	t.c = nil
}

var _ Resumable = (*Task)(nil)
var _ Resumable = (*continuation)(nil)
