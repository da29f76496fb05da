package cps

import (
	"sync"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/hooking"
)

// A Scheduler owns simulated time and drives suspended routines forward. It
// keeps three registries:
//
//   - a FIFO ready queue of routines eligible for immediate resumption,
//   - a time-ordered queue of routines waiting for a wake time, and
//   - a per-event-id list of one-shot handlers.
//
// Exactly one goroutine may drive a Scheduler. Current time is additionally
// readable from other goroutines (the monitoring server polls it); nothing
// else on the Scheduler is safe to touch concurrently.
type Scheduler struct {
	hooking.HookableBase

	timeLock sync.RWMutex
	now      VTimeInMs

	ready    []Resumable
	timed    timedQueue
	handlers map[EventID][]EventHandler
}

// NewScheduler creates a Scheduler with time at zero and empty registries.
func NewScheduler() *Scheduler {
	return &Scheduler{
		handlers: make(map[EventID][]EventHandler),
	}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() VTimeInMs {
	s.timeLock.RLock()
	t := s.now
	s.timeLock.RUnlock()
	return t
}

// SetTime sets the current simulated time directly. Nothing stops a caller
// from moving time backward; keeping time monotonic is a caller contract.
func (s *Scheduler) SetTime(t VTimeInMs) {
	s.timeLock.Lock()
	s.now = t
	s.timeLock.Unlock()
}

// AdvanceTime moves the current simulated time forward by delta.
func (s *Scheduler) AdvanceTime(delta VTimeInMs) {
	s.timeLock.Lock()
	s.now += delta
	s.timeLock.Unlock()
}

// Schedule appends r to the ready queue. It is resumed by the next stepping
// call, in FIFO order.
func (s *Scheduler) Schedule(r Resumable) {
	s.ready = append(s.ready, r)
}

// ScheduleAfter queues r to wake at Now()+delay. Routines sharing a wake
// time resume in the order they were queued.
func (s *Scheduler) ScheduleAfter(delay VTimeInMs, r Resumable) {
	s.timed.Push(s.Now()+delay, r)
}

// RegisterEventHandler appends handler to the registry entry for id. The
// handler fires at most once: the next trigger of id consumes it.
func (s *Scheduler) RegisterEventHandler(id EventID, handler EventHandler) {
	s.handlers[id] = append(s.handlers[id], handler)
}

// TriggerEvent fires id with no payload. See TriggerEventData.
func (s *Scheduler) TriggerEvent(id EventID) {
	s.TriggerEventData(id, nil)
}

// TriggerEventData fires id, delivering data to every handler currently
// registered for it, in registration order. The registry entry is erased
// before any handler runs, so a handler that re-registers for the same id is
// only woken by the next trigger. Triggering an id nobody waits for is a
// silent no-op; the payload is dropped, not queued.
func (s *Scheduler) TriggerEventData(id EventID, data any) {
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosEventTrigger,
		Item:   id,
		Detail: data,
	})

	// Snapshot then erase, so handler side effects (including
	// re-registration for the same id) cannot disturb this firing.
	fired := s.handlers[id]
	if len(fired) == 0 {
		return
	}
	delete(s.handlers, id)

	for _, handler := range fired {
		handler(data)
	}
}

// RunOneStep performs the smallest unit of progress and reports whether any
// work was done. A non-empty ready queue wins over the timed queue: its front
// entry is popped and resumed. Otherwise, if timed routines exist, time jumps
// to the earliest wake time and every due routine moves to the ready queue
// without being resumed yet.
func (s *Scheduler) RunOneStep() bool {
	if len(s.ready) > 0 {
		front := s.ready[0]
		s.ready = s.ready[1:]
		s.resumeOne(front)
		return true
	}

	if s.timed.Len() > 0 {
		s.SetTime(s.timed.Peek().when)
		s.promoteDue()
		return true
	}

	return false
}

// RunUntil drives the simulation forward until endTime, or until both queues
// drain earlier. Timed routines whose wake time is at or past endTime
// are left untouched, even at exactly endTime. On return, Now() == endTime
// unless time already moved past it before the call.
func (s *Scheduler) RunUntil(endTime VTimeInMs) {
	for s.Now() < endTime && (len(s.ready) > 0 || s.timed.Len() > 0) {
		// Fully drain the ready queue. Resumed routines may append more
		// ready entries; those run within this same pass.
		for len(s.ready) > 0 {
			front := s.ready[0]
			s.ready = s.ready[1:]
			s.resumeOne(front)
		}

		if len(s.ready) == 0 && s.timed.Len() > 0 {
			next := s.timed.Peek().when
			if next >= endTime {
				s.SetTime(endTime)
				break
			}
			s.SetTime(next)
			s.promoteDue()
		}
	}

	if s.Now() < endTime {
		s.SetTime(endTime)
	}
}

// IsEmpty reports whether the ready queue, the timed queue and the event
// registry are all empty.
func (s *Scheduler) IsEmpty() bool {
	return len(s.ready) == 0 && s.timed.Len() == 0 && len(s.handlers) == 0
}

// promoteDue moves every timed entry due at the current time into the ready
// queue, preserving wake-time then insertion order.
func (s *Scheduler) promoteDue() {
	now := s.Now()
	for s.timed.Len() > 0 && s.timed.Peek().when <= now {
		s.ready = append(s.ready, s.timed.Pop().r)
	}
}

func (s *Scheduler) resumeOne(r Resumable) {
	if r.IsDone() {
		return
	}

	ctx := hooking.HookCtx{
		Domain: s,
		Pos:    HookPosBeforeResume,
		Item:   r,
	}
	s.InvokeHook(ctx)

	r.Resume()

	ctx.Pos = HookPosAfterResume
	s.InvokeHook(ctx)
}
