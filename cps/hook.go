package cps

import (
	"log"
	"reflect"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/hooking"
)

// Hook positions raised by a Scheduler.
var (
	// HookPosBeforeResume fires right before a routine is resumed from the
	// ready queue. Item is the Resumable.
	HookPosBeforeResume = &hooking.HookPos{Name: "BeforeResume"}

	// HookPosAfterResume fires after the resumed routine suspended again or
	// completed. Item is the Resumable.
	HookPosAfterResume = &hooking.HookPos{Name: "AfterResume"}

	// HookPosEventTrigger fires at the start of each TriggerEvent[Data]
	// call, before any handler is consumed. Item is the EventID, Detail the
	// payload (nil for the data-less form).
	HookPosEventTrigger = &hooking.HookPos{Name: "EventTrigger"}
)

// StepLogger is a hook that prints every resumption and event trigger.
type StepLogger struct {
	Logger *log.Logger
}

// NewStepLogger returns a hook that writes scheduling steps to logger.
func NewStepLogger(logger *log.Logger) *StepLogger {
	return &StepLogger{Logger: logger}
}

// Func writes one line per resumption and per event trigger.
func (h *StepLogger) Func(ctx hooking.HookCtx) {
	s, ok := ctx.Domain.(*Scheduler)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosBeforeResume:
		h.Logger.Printf("%d, resume %s", s.Now(), reflect.TypeOf(ctx.Item))
	case HookPosEventTrigger:
		if ctx.Detail == nil {
			h.Logger.Printf("%d, trigger event %d", s.Now(), ctx.Item)
		} else {
			h.Logger.Printf("%d, trigger event %d (%T)",
				s.Now(), ctx.Item, ctx.Detail)
		}
	}
}
