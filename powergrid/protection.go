package powergrid

import (
	"github.com/rs/zerolog"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/ecs"
)

// A Relay decides whether a protected element must trip for a given fault,
// and after how long.
type Relay interface {
	// PickUp reports whether the relay starts for this fault. self is the
	// entity the relay protects.
	PickUp(fault FaultInfo, self ecs.Entity) bool

	// TripDelay returns the time from pick-up to the trip command.
	TripDelay(fault FaultInfo) cps.VTimeInMs

	// Name identifies the relay stage in logs.
	Name() string
}

// OverCurrentRelay trips after a fixed delay once the fault current exceeds
// its pickup setting.
type OverCurrentRelay struct {
	PickupCurrentKA float64
	Delay           cps.VTimeInMs
	StageName       string
}

func NewOverCurrentRelay(pickupKA float64, delay cps.VTimeInMs, stage string) *OverCurrentRelay {
	return &OverCurrentRelay{
		PickupCurrentKA: pickupKA,
		Delay:           delay,
		StageName:       stage,
	}
}

func (r *OverCurrentRelay) PickUp(fault FaultInfo, _ ecs.Entity) bool {
	return fault.CurrentKA >= r.PickupCurrentKA
}

func (r *OverCurrentRelay) TripDelay(FaultInfo) cps.VTimeInMs {
	return r.Delay
}

func (r *OverCurrentRelay) Name() string {
	return r.StageName
}

// DistanceRelay trips in one of three impedance zones, each with its own
// delay. Zone 1 protects its own element; zones 2 and 3 reach into remote
// elements as backup.
type DistanceRelay struct {
	zoneOhm [3]float64
	zoneDly [3]cps.VTimeInMs
}

func NewDistanceRelay(
	z1 float64, t1 cps.VTimeInMs,
	z2 float64, t2 cps.VTimeInMs,
	z3 float64, t3 cps.VTimeInMs,
) *DistanceRelay {
	return &DistanceRelay{
		zoneOhm: [3]float64{z1, z2, z3},
		zoneDly: [3]cps.VTimeInMs{t1, t2, t3},
	}
}

func (r *DistanceRelay) PickUp(fault FaultInfo, self ecs.Entity) bool {
	if fault.FaultyEntity != self && fault.FaultyEntity != 0 {
		// Remote fault, reachable only through the backup zone.
		return fault.ImpedanceOhm <= r.zoneOhm[2]
	}
	return fault.ImpedanceOhm <= r.zoneOhm[0] ||
		fault.ImpedanceOhm <= r.zoneOhm[1] ||
		fault.ImpedanceOhm <= r.zoneOhm[2]
}

func (r *DistanceRelay) TripDelay(fault FaultInfo) cps.VTimeInMs {
	for zone := 0; zone < 3; zone++ {
		if fault.ImpedanceOhm <= r.zoneOhm[zone] {
			return r.zoneDly[zone]
		}
	}
	return 99999
}

func (r *DistanceRelay) Name() string {
	return "DIST"
}

// breakerOperateTime is the mechanical delay between the trip command and the
// breaker contacts opening.
const breakerOperateTime cps.VTimeInMs = 100

// ProtectionSystem dispatches faults to every relay in the registry and turns
// relay decisions into timed trip events.
type ProtectionSystem struct {
	registry *ecs.Registry
	sched    *cps.Scheduler
	logger   zerolog.Logger
}

func NewProtectionSystem(reg *ecs.Registry, sched *cps.Scheduler, logger zerolog.Logger) *ProtectionSystem {
	return &ProtectionSystem{
		registry: reg,
		sched:    sched,
		logger:   logger,
	}
}

// InjectFault delivers a fault measurement to the protection system.
func (p *ProtectionSystem) InjectFault(fault FaultInfo) {
	p.sched.TriggerEventData(FaultInfoEvent, fault)
}

// Run is the protection system's main loop. For each fault it sweeps all
// relays; every relay that picks up arms a detached trip timer.
func (p *ProtectionSystem) Run(ctx *cps.Context) {
	p.logger.Info().Msg("protection system active")

	for {
		fault := cps.WaitEventValue[FaultInfo](ctx, FaultInfoEvent)
		fault.DeriveImpedance()

		p.logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Uint64("faulty_entity", uint64(fault.FaultyEntity)).
			Float64("current_kA", fault.CurrentKA).
			Float64("impedance_ohm", fault.ImpedanceOhm).
			Msg("fault received")

		ecs.Each(p.registry, func(relay Relay, e ecs.Entity) {
			if !relay.PickUp(fault, e) {
				return
			}
			delay := relay.TripDelay(fault)
			p.logger.Info().
				Int64("time_ms", int64(ctx.Now())).
				Str("relay", relay.Name()).
				Uint64("entity", uint64(e)).
				Int64("trip_delay_ms", int64(delay)).
				Msg("relay picked up")

			cps.Spawn(p.sched, p.tripLater(e, delay, relay.Name())).Detach()
		})
	}
}

func (p *ProtectionSystem) tripLater(e ecs.Entity, delay cps.VTimeInMs, relayName string) cps.TaskFunc {
	return func(ctx *cps.Context) {
		ctx.Delay(delay)
		p.logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Str("relay", relayName).
			Uint64("entity", uint64(e)).
			Msg("tripping")
		p.sched.TriggerEventData(EntityTripEvent, e)
	}
}

// BreakerAgentTask models one circuit breaker. It waits for trip commands
// addressed to its element, opens after the mechanical operate time, and
// announces the opening.
func BreakerAgentTask(e ecs.Entity, name string, logger zerolog.Logger) cps.TaskFunc {
	return func(ctx *cps.Context) {
		logger.Info().
			Str("breaker", name).
			Uint64("entity", uint64(e)).
			Msg("breaker agent active")

		for {
			tripped := cps.WaitEventValue[ecs.Entity](ctx, EntityTripEvent)
			if tripped != e {
				continue
			}

			ctx.Delay(breakerOperateTime)
			logger.Info().
				Int64("time_ms", int64(ctx.Now())).
				Str("breaker", name).
				Uint64("entity", uint64(e)).
				Msg("breaker opened")
			ctx.Scheduler().TriggerEventData(BreakerOpenedEvent, e)
		}
	}
}

// FaultInjectorTask injects the two study faults: a severe line fault at 6 s
// and a transformer fault 7 s later.
func FaultInjectorTask(prot *ProtectionSystem, line, transformer ecs.Entity, logger zerolog.Logger) cps.TaskFunc {
	return func(ctx *cps.Context) {
		ctx.Delay(6000)
		fault1 := FaultInfo{
			FaultyEntity: line,
			CurrentKA:    15.0,
			VoltageKV:    220.0,
			DistanceKm:   10.0,
			ImpedanceOhm: (220.0 / 15.0) * 0.8,
		}
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Uint64("entity", uint64(line)).
			Msg("injecting line fault")
		prot.InjectFault(fault1)

		ctx.Delay(7000)
		fault2 := FaultInfo{
			FaultyEntity: transformer,
			CurrentKA:    3.0,
			VoltageKV:    220.0,
		}
		fault2.DeriveImpedance()
		logger.Info().
			Int64("time_ms", int64(ctx.Now())).
			Uint64("entity", uint64(transformer)).
			Msg("injecting transformer fault")
		prot.InjectFault(fault2)
	}
}
