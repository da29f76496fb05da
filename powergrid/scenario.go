package powergrid

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/datarecording"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/ecs"
)

// ScenarioConfig sizes the co-simulation study case.
type ScenarioConfig struct {
	EVStations      int
	PilesPerStation int
	ESSUnits        int

	DisturbanceStart cps.VTimeInMs
	Step             cps.VTimeInMs
	Horizon          cps.VTimeInMs

	// Seed for the initial EV state of charge.
	Seed int64
}

// DefaultScenarioConfig returns the study case used throughout: 50 EV piles,
// 100 ESS units, a disturbance at 5 s and a 70 s horizon at a 20 ms step.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		EVStations:       10,
		PilesPerStation:  5,
		ESSUnits:         100,
		DisturbanceStart: 5000,
		Step:             20,
		Horizon:          70000,
		Seed:             1,
	}
}

// Scenario is a fully wired study case ready to run.
type Scenario struct {
	Config    ScenarioConfig
	Scheduler *cps.Scheduler
	Registry  *ecs.Registry

	Line        ecs.Entity
	Transformer ecs.Entity
	EVPiles     []ecs.Entity
	ESSUnits    []ecs.Entity
}

// BuildScenario assembles the study case: protection entities with their
// relays, breaker agents, the fault injector, the VPP fleets, the frequency
// oracle and the plant background tasks. All tasks are spawned detached; call
// Run to execute.
func BuildScenario(cfg ScenarioConfig, logger zerolog.Logger, recorder datarecording.DataRecorder) *Scenario {
	sched := cps.NewScheduler()
	reg := ecs.NewRegistry()

	sc := &Scenario{
		Config:    cfg,
		Scheduler: sched,
		Registry:  reg,
	}

	// Protection subsystem.
	sc.Line = reg.Create()
	ecs.Emplace(reg, sc.Line, NewOverCurrentRelay(5.0, 200, "OC-L1P-Fast"))
	ecs.Emplace(reg, sc.Line, NewDistanceRelay(5.0, 0, 15.0, 300, 25.0, 700))
	sc.Transformer = reg.Create()
	ecs.Emplace(reg, sc.Transformer, NewOverCurrentRelay(2.5, 300, "OC-T1P-Main"))

	prot := NewProtectionSystem(reg, sched, logger)
	cps.Spawn(sched, prot.Run).Detach()
	cps.Spawn(sched, FaultInjectorTask(prot, sc.Line, sc.Transformer, logger)).Detach()
	cps.Spawn(sched, BreakerAgentTask(sc.Line, "Line1", logger)).Detach()
	cps.Spawn(sched, BreakerAgentTask(sc.Transformer, "T1", logger)).Detach()

	// Frequency response subsystem.
	rng := rand.New(rand.NewSource(cfg.Seed))
	totalPiles := cfg.EVStations * cfg.PilesPerStation
	for i := 0; i < totalPiles; i++ {
		pile := reg.Create()
		sc.EVPiles = append(sc.EVPiles, pile)

		var scheduledKW float64
		switch i % 3 {
		case 0:
			scheduledKW = -5.0
		case 1:
			scheduledKW = -3.5
		default:
			scheduledKW = 0.0
		}
		ecs.Emplace(reg, pile, &FreqControlConfig{
			Type:        EVPile,
			BasePowerKW: scheduledKW,
			GainKWPerHz: 4.0,
			DeadbandHz:  0.03,
			MaxOutputKW: 5.0,
			MinOutputKW: -5.0,
			SOCMin:      0.1,
			SOCMax:      0.95,
		})
		initialSOC := 0.25 + rng.Float64()*(0.9-0.25)
		ecs.Emplace(reg, pile, &PhysicalState{PowerKW: scheduledKW, SOC: initialSOC})
	}

	for i := 0; i < cfg.ESSUnits; i++ {
		ess := reg.Create()
		sc.ESSUnits = append(sc.ESSUnits, ess)

		ecs.Emplace(reg, ess, &FreqControlConfig{
			Type:        ESSUnit,
			BasePowerKW: 0.0,
			GainKWPerHz: 1000.0 / (0.03 * 50.0),
			DeadbandHz:  0.03,
			MaxOutputKW: 1000.0,
			MinOutputKW: -1000.0,
			SOCMin:      0.05,
			SOCMax:      0.95,
		})
		ecs.Emplace(reg, ess, &PhysicalState{PowerKW: 0.0, SOC: 0.7})
	}

	allDevices := append(append([]ecs.Entity{}, sc.EVPiles...), sc.ESSUnits...)
	cps.Spawn(sched,
		FrequencyOracleTask(reg, allDevices, cfg.DisturbanceStart, cfg.Step, logger, recorder)).
		Detach()
	cps.Spawn(sched, VPPResponseTask(reg, "EV_VPP", sc.EVPiles, logger)).Detach()
	cps.Spawn(sched, VPPResponseTask(reg, "ESS_VPP", sc.ESSUnits, logger)).Detach()

	// Plant background tasks.
	cps.Spawn(sched, GeneratorTask(logger)).Detach()
	cps.Spawn(sched, LoadTask(logger)).Detach()

	return sc
}

// Run executes the scenario to its horizon.
func (s *Scenario) Run() {
	s.Scheduler.RunUntil(s.Scheduler.Now() + s.Config.Horizon)
}
