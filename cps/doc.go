// Package cps implements a single-threaded cooperative task-scheduling
// engine for discrete-event simulation.
//
// User routines are spawned as tasks that run until they suspend, either for
// a simulated duration (Context.Delay) or until a named event fires
// (Context.WaitEvent, WaitEventValue). A Scheduler owns simulated time and
// resumes suspended tasks in a deterministic order: ready tasks in FIFO
// order, timed tasks in wake-time order with insertion-order tie-breaks,
// event handlers in registration order within one trigger.
//
// Tasks are backed by goroutines, but execution is strictly cooperative: at
// any instant exactly one routine runs, and resumption nests synchronously
// within the resumer's control flow. Simulated time only moves when the
// driving code calls Scheduler.RunOneStep or Scheduler.RunUntil.
package cps
