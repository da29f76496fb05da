package powergrid

import (
	"github.com/rs/zerolog"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
)

// GeneratorTask models the main generator: a startup sequence, followed by a
// loop that services power adjustment requests.
func GeneratorTask(logger zerolog.Logger) cps.TaskFunc {
	return func(ctx *cps.Context) {
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("generator startup sequence initiated")
		ctx.Delay(1000)
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("generator online and stable")
		ctx.Scheduler().TriggerEvent(GeneratorReadyEvent)

		for {
			ctx.WaitEvent(PowerAdjustRequestEvent)
			logger.Info().
				Int64("time_ms", int64(ctx.Now())).
				Msg("generator adjusting output")
			ctx.Delay(300)
			logger.Info().
				Int64("time_ms", int64(ctx.Now())).
				Msg("generator output adjusted")
		}
	}
}

// LoadTask models the aggregate load: it applies an initial load once the
// generator is ready, then ramps it up in two steps.
func LoadTask(logger zerolog.Logger) cps.TaskFunc {
	return func(ctx *cps.Context) {
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("load waiting for generator")
		ctx.WaitEvent(GeneratorReadyEvent)
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("initial load applied")
		ctx.Delay(500)

		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("load increased")
		ctx.Scheduler().TriggerEvent(LoadChangeEvent)

		ctx.Delay(10000)
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Msg("load significantly increased")
		ctx.Scheduler().TriggerEvent(LoadChangeEvent)
		ctx.Scheduler().TriggerEvent(StabilityConcernEvent)
	}
}
