package cps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stubRoutine records its resumptions, standing in for a suspended task.
type stubRoutine struct {
	name string
	log  *[]string
	done bool
}

func (r *stubRoutine) Resume() {
	*r.log = append(*r.log, r.name)
}

func (r *stubRoutine) IsDone() bool {
	return r.done
}

func TestRunOneStepIdleWhenEmpty(t *testing.T) {
	s := NewScheduler()

	require.False(t, s.RunOneStep())
	require.True(t, s.IsEmpty())
	require.Equal(t, VTimeInMs(0), s.Now())
}

func TestReadyQueueIsFIFO(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.Schedule(&stubRoutine{name: "A", log: &log})
	s.Schedule(&stubRoutine{name: "B", log: &log})

	require.True(t, s.RunOneStep())
	require.Equal(t, []string{"A"}, log)

	require.True(t, s.RunOneStep())
	require.Equal(t, []string{"A", "B"}, log)

	require.False(t, s.RunOneStep())
}

func TestCompletedRoutineIsSkipped(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.Schedule(&stubRoutine{name: "done", log: &log, done: true})

	require.True(t, s.RunOneStep())
	require.Empty(t, log)
}

func TestTimedQueueKeepsInsertionOrderAtSameWakeTime(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.ScheduleAfter(50, &stubRoutine{name: "A", log: &log})
	s.ScheduleAfter(50, &stubRoutine{name: "B", log: &log})
	s.ScheduleAfter(20, &stubRoutine{name: "early", log: &log})

	s.RunUntil(100)

	require.Equal(t, []string{"early", "A", "B"}, log)
	require.Equal(t, VTimeInMs(100), s.Now())
}

func TestTimedRoutineNotResumedBeforeWakeTime(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.ScheduleAfter(80, &stubRoutine{name: "late", log: &log})

	// One step only moves time to the wake point and promotes the entry.
	require.True(t, s.RunOneStep())
	require.Empty(t, log)
	require.Equal(t, VTimeInMs(80), s.Now())

	require.True(t, s.RunOneStep())
	require.Equal(t, []string{"late"}, log)
}

func TestRunOneStepPrefersReadyOverTimed(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.ScheduleAfter(10, &stubRoutine{name: "timed", log: &log})
	s.Schedule(&stubRoutine{name: "ready", log: &log})

	require.True(t, s.RunOneStep())
	require.Equal(t, []string{"ready"}, log)
	require.Equal(t, VTimeInMs(0), s.Now())
}

func TestRunUntilStopsAtHorizon(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	// Wake time exactly at the horizon: must not run in this call.
	s.ScheduleAfter(200, &stubRoutine{name: "atEnd", log: &log})

	s.RunUntil(200)

	require.Empty(t, log)
	require.Equal(t, VTimeInMs(200), s.Now())
	require.False(t, s.IsEmpty())

	// A later call with a wider horizon picks it up.
	s.RunUntil(300)
	require.Equal(t, []string{"atEnd"}, log)
}

func TestRunUntilAdvancesToHorizonWhenWorkExhausted(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	s.ScheduleAfter(30, &stubRoutine{name: "only", log: &log})

	s.RunUntil(500)

	require.Equal(t, []string{"only"}, log)
	require.Equal(t, VTimeInMs(500), s.Now())
	require.True(t, s.IsEmpty())
}

func TestTriggerEventWithoutHandlersIsNoOp(t *testing.T) {
	s := NewScheduler()

	require.NotPanics(t, func() {
		s.TriggerEvent(42)
		s.TriggerEventData(42, "payload")
	})
	require.True(t, s.IsEmpty())
}

func TestEventHandlersAreOneShot(t *testing.T) {
	s := NewScheduler()
	delivered := []any{}

	s.RegisterEventHandler(7, func(data any) {
		delivered = append(delivered, data)
	})

	s.TriggerEventData(7, 42)
	require.Equal(t, []any{42}, delivered)

	// Handler was consumed; a second firing reaches nobody.
	s.TriggerEventData(7, 99)
	require.Equal(t, []any{42}, delivered)
}

func TestEventHandlersFireInRegistrationOrder(t *testing.T) {
	s := NewScheduler()
	order := []string{}

	s.RegisterEventHandler(3, func(any) { order = append(order, "first") })
	s.RegisterEventHandler(3, func(any) { order = append(order, "second") })

	s.TriggerEvent(3)

	require.Equal(t, []string{"first", "second"}, order)
}

func TestReRegistrationDuringFiringWaitsForNextTrigger(t *testing.T) {
	s := NewScheduler()
	calls := 0

	var handler EventHandler
	handler = func(any) {
		calls++
		s.RegisterEventHandler(5, handler)
	}
	s.RegisterEventHandler(5, handler)

	s.TriggerEvent(5)
	require.Equal(t, 1, calls)

	s.TriggerEvent(5)
	require.Equal(t, 2, calls)
}

func TestEventPayloadIsNotBuffered(t *testing.T) {
	s := NewScheduler()
	delivered := []any{}

	// Nobody waits: 42 is dropped.
	s.TriggerEventData(9, 42)

	s.RegisterEventHandler(9, func(data any) {
		delivered = append(delivered, data)
	})
	require.Empty(t, delivered)

	s.TriggerEventData(9, 7)
	require.Equal(t, []any{7}, delivered)
}

func TestSetAndAdvanceTime(t *testing.T) {
	s := NewScheduler()

	s.SetTime(100)
	require.Equal(t, VTimeInMs(100), s.Now())

	s.AdvanceTime(50)
	require.Equal(t, VTimeInMs(150), s.Now())

	// ScheduleAfter keys off the current time.
	log := []string{}
	s.ScheduleAfter(25, &stubRoutine{name: "x", log: &log})
	s.RunUntil(300)
	require.Equal(t, []string{"x"}, log)
	require.Equal(t, VTimeInMs(300), s.Now())
}

func TestRoutineScheduledDuringDrainRunsInSamePass(t *testing.T) {
	s := NewScheduler()
	log := []string{}

	inner := &stubRoutine{name: "inner", log: &log}
	s.Schedule(&hookedRoutine{
		fn: func() {
			log = append(log, "outer")
			s.Schedule(inner)
		},
	})

	s.RunUntil(10)

	require.Equal(t, []string{"outer", "inner"}, log)
}

// hookedRoutine runs an arbitrary function on resumption.
type hookedRoutine struct {
	fn   func()
	done bool
}

func (r *hookedRoutine) Resume() { r.fn() }

func (r *hookedRoutine) IsDone() bool { return r.done }
