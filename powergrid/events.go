// Package powergrid models a small cyber-physical power system on top of the
// cps scheduler: relay protection with breaker agents, and a virtual power
// plant that regulates grid frequency with EV charging piles and energy
// storage units.
package powergrid

import (
	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/ecs"
)

// Simulation-wide event IDs.
const (
	GeneratorReadyEvent     cps.EventID = 1
	LoadChangeEvent         cps.EventID = 2
	BreakerOpenedEvent      cps.EventID = 6
	StabilityConcernEvent   cps.EventID = 7
	LoadShedRequestEvent    cps.EventID = 8
	PowerAdjustRequestEvent cps.EventID = 9

	// Protection subsystem.
	FaultInfoEvent  cps.EventID = 100
	EntityTripEvent cps.EventID = 101

	// Frequency response subsystem.
	FrequencyUpdateEvent cps.EventID = 200
)

// FaultInfo describes an electrical fault as seen by the relays.
type FaultInfo struct {
	CurrentKA    float64
	VoltageKV    float64
	ImpedanceOhm float64
	DistanceKm   float64
	FaultyEntity ecs.Entity
}

// DeriveImpedance fills in the apparent impedance from voltage and current
// when it was not measured directly.
func (f *FaultInfo) DeriveImpedance() {
	if f.ImpedanceOhm == 0.0 && f.VoltageKV > 0 && f.CurrentKA > 0 {
		f.ImpedanceOhm = (f.VoltageKV * 1000.0) / (f.CurrentKA * 1000.0)
	}
}

// FrequencyInfo is the payload of FrequencyUpdateEvent.
type FrequencyInfo struct {
	SimTimeSeconds  float64
	FreqDeviationHz float64
}
