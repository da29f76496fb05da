package powergrid

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/datarecording"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/ecs"
)

// DeviceType distinguishes the controllable resources in the virtual power
// plant.
type DeviceType int

const (
	EVPile DeviceType = iota
	ESSUnit
)

// PhysicalState is the mutable electrical state of one device.
type PhysicalState struct {
	PowerKW float64
	SOC     float64
}

// FreqControlConfig is the droop control law of one device.
type FreqControlConfig struct {
	Type        DeviceType
	BasePowerKW float64
	GainKWPerHz float64
	DeadbandHz  float64
	MaxOutputKW float64
	MinOutputKW float64
	SOCMin      float64
	SOCMax      float64
}

// Post-disturbance frequency trajectory of the study system, fitted from
// time-domain simulation of the full grid model.
const (
	freqCoeffP  = 0.0862
	freqCoeffM  = 0.1404
	freqCoeffM1 = 0.1577
	freqCoeffM2 = 0.0397
	freqCoeffN  = 0.125
)

// Battery capacities assumed for SOC bookkeeping.
const (
	evBatteryCapacityKWh  = 50.0
	essBatteryCapacityKWh = 2000.0
)

// FrequencyDeviation returns the grid frequency deviation in Hz at the given
// time relative to the disturbance. Before the disturbance it is zero.
func FrequencyDeviation(tRelSeconds float64) float64 {
	if tRelSeconds < 0 {
		return 0.0
	}
	return -(freqCoeffM +
		(freqCoeffM1*math.Sin(freqCoeffM*tRelSeconds) -
			freqCoeffM*math.Cos(freqCoeffM*tRelSeconds))) /
		freqCoeffM2 * math.Exp(-freqCoeffN*tRelSeconds) * freqCoeffP
}

// integrateSOC accounts the energy exchanged at the device's current power
// over dt seconds. Discharging (positive power) lowers the SOC.
func integrateSOC(state *PhysicalState, cfg *FreqControlConfig, dtSeconds float64) {
	if dtSeconds <= 1e-6 {
		return
	}

	energyKWh := state.PowerKW * (dtSeconds / 3600.0)

	capacity := evBatteryCapacityKWh
	if cfg.Type == ESSUnit {
		capacity = essBatteryCapacityKWh
	}
	state.SOC -= energyKWh / capacity
	state.SOC = math.Max(0.0, math.Min(1.0, state.SOC))
}

// droopResponse returns the power setpoint commanded by the droop law for the
// given frequency deviation and current SOC.
func droopResponse(cfg *FreqControlConfig, soc, freqDevHz float64) float64 {
	powerKW := cfg.BasePowerKW

	if math.Abs(freqDevHz) > cfg.DeadbandHz {
		if freqDevHz < 0 {
			// Under-frequency: discharge or stop charging.
			effectiveDev := freqDevHz + cfg.DeadbandHz
			switch cfg.Type {
			case EVPile:
				if soc >= cfg.SOCMin {
					powerKW = -cfg.GainKWPerHz * effectiveDev
				} else if cfg.BasePowerKW < 0 {
					powerKW = 0.0
				}
			case ESSUnit:
				powerKW = -cfg.GainKWPerHz * effectiveDev
			}
		} else {
			// Over-frequency: absorb additional power.
			effectiveDev := freqDevHz - cfg.DeadbandHz
			powerKW = cfg.BasePowerKW - cfg.GainKWPerHz*effectiveDev
		}
	}

	powerKW = math.Max(cfg.MinOutputKW, math.Min(cfg.MaxOutputKW, powerKW))

	if cfg.Type == EVPile {
		if powerKW < 0 && soc >= cfg.SOCMax {
			powerKW = 0.0
		}
		if powerKW > 0 && soc <= cfg.SOCMin {
			powerKW = 0.0
		}
	}

	return powerKW
}

// FreqSample is one row of the recorded frequency response trace.
type FreqSample struct {
	TimeMs          int64
	TimeS           float64
	RelativeTimeS   float64
	FreqDeviationHz float64
	TotalVPPPowerKW float64
}

// FreqSampleTable is the table FrequencyOracleTask records into.
const FreqSampleTable = "frequency_response"

// FrequencyOracleTask drives the grid frequency. Every step it evaluates the
// disturbance trajectory, broadcasts a FrequencyUpdateEvent, and records the
// aggregate VPP power of the managed devices.
func FrequencyOracleTask(
	reg *ecs.Registry,
	devices []ecs.Entity,
	disturbanceStart cps.VTimeInMs,
	step cps.VTimeInMs,
	logger zerolog.Logger,
	recorder datarecording.DataRecorder,
) cps.TaskFunc {
	return func(ctx *cps.Context) {
		logger.Info().
			Float64("disturbance_s", disturbanceStart.Seconds()).
			Int64("step_ms", int64(step)).
			Msg("frequency oracle active")

		if recorder != nil {
			recorder.CreateTable(FreqSampleTable, FreqSample{})
		}

		for {
			ctx.Delay(step)

			nowS := ctx.Now().Seconds()
			relS := nowS - disturbanceStart.Seconds()
			devHz := FrequencyDeviation(relS)

			ctx.Scheduler().TriggerEventData(FrequencyUpdateEvent, FrequencyInfo{
				SimTimeSeconds:  nowS,
				FreqDeviationHz: devHz,
			})

			totalKW := 0.0
			for _, e := range devices {
				if state, ok := ecs.Get[*PhysicalState](reg, e); ok {
					totalKW += state.PowerKW
				}
			}

			if recorder != nil {
				recorder.InsertData(FreqSampleTable, FreqSample{
					TimeMs:          int64(ctx.Now()),
					TimeS:           nowS,
					RelativeTimeS:   relS,
					FreqDeviationHz: devHz,
					TotalVPPPowerKW: totalKW,
				})
			}
		}
	}
}

// Update thresholds for the event-driven VPP controller. A full device sweep
// only runs when the frequency moved enough or enough time passed.
const (
	freqChangeThresholdHz = 0.01
	timeThresholdSeconds  = 1.0
)

// VPPResponseTask aggregates a fleet of devices into one virtual power plant.
// On each FrequencyUpdateEvent it decides whether a full sweep is warranted
// and, if so, integrates SOC and reapplies the droop law on every device.
func VPPResponseTask(
	reg *ecs.Registry,
	name string,
	managed []ecs.Entity,
	logger zerolog.Logger,
) cps.TaskFunc {
	return func(ctx *cps.Context) {
		logger.Info().
			Str("vpp", name).
			Int("devices", len(managed)).
			Msg("vpp frequency response active")

		lastEventTimeS := -1.0
		lastSweepTimeS := -1.0
		lastSweepDevHz := 0.0

		for {
			info := cps.WaitEventValue[FrequencyInfo](ctx, FrequencyUpdateEvent)

			if info.SimTimeSeconds <= lastEventTimeS {
				continue
			}
			lastEventTimeS = info.SimTimeSeconds

			sweep := false
			dt := 0.0
			if lastSweepTimeS < 0 {
				sweep = true
			} else {
				dt = info.SimTimeSeconds - lastSweepTimeS
				if dt < 0 {
					dt = 0
				}
				if math.Abs(info.FreqDeviationHz-lastSweepDevHz) > freqChangeThresholdHz {
					sweep = true
				}
				if dt >= timeThresholdSeconds {
					sweep = true
				}
			}
			if !sweep {
				continue
			}

			for _, e := range managed {
				cfg, okC := ecs.Get[*FreqControlConfig](reg, e)
				state, okS := ecs.Get[*PhysicalState](reg, e)
				if !okC || !okS {
					continue
				}

				if lastSweepTimeS >= 0 {
					integrateSOC(state, cfg, dt)
				}
				state.PowerKW = droopResponse(cfg, state.SOC, info.FreqDeviationHz)
			}

			lastSweepTimeS = info.SimTimeSeconds
			lastSweepDevHz = info.FreqDeviationHz
		}
	}
}
