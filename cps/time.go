package cps

import "fmt"

// VTimeInMs is simulated time in milliseconds. It is advanced only by a
// Scheduler and has no relation to wall-clock time. The same type is used for
// absolute time points and for durations.
type VTimeInMs int64

// Seconds converts a simulated time to seconds.
func (t VTimeInMs) Seconds() float64 {
	return float64(t) / 1000.0
}

func (t VTimeInMs) String() string {
	return fmt.Sprintf("%dms", int64(t))
}

// An EventID names a class of occurrences that tasks can wait for. Payload
// typing is a contract between the triggering and the waiting side; the
// engine checks it at delivery time.
type EventID uint64

// An EventHandler reacts to one firing of an event. The data argument is nil
// when the event was triggered without a payload. Handlers are one-shot: a
// firing removes every handler registered for the id before invoking them.
type EventHandler func(data any)
