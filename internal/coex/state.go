package coex

import "sync"

// state is the single source of truth for the controller. It is mutated only
// by the mitigation engine, serialized by the at-most-one-cycle-in-flight
// rule, and read concurrently through value snapshots.
type state struct {
	mu sync.Mutex

	floor int // minimum transmit power percent

	wifiChannel              int
	bleChannel               int
	wifiPower                int
	blePower                 int
	mitigationActive         bool
	interferenceLevel        int
	throughputImprovementPct int
	channelSwitches          uint64

	cycles       uint64
	emptyCycles  uint64
	droppedTicks uint64
}

func newState(floor int) *state {
	return &state{
		floor:     floor,
		wifiPower: 100,
		blePower:  100,
	}
}

func (s *state) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked builds a Snapshot while s.mu is held.
func (s *state) snapshotLocked() Snapshot {
	return Snapshot{
		WiFiChannel:              s.wifiChannel,
		BLEChannel:               s.bleChannel,
		WiFiPower:                s.wifiPower,
		BLEPower:                 s.blePower,
		MitigationActive:         s.mitigationActive,
		InterferenceLevel:        s.interferenceLevel,
		ThroughputImprovementPct: s.throughputImprovementPct,
		ChannelSwitches:          s.channelSwitches,
		Cycles:                   s.cycles,
		EmptyCycles:              s.emptyCycles,
		DroppedTicks:             s.droppedTicks,
	}
}

func (s *state) stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		InterferenceLevel:        s.interferenceLevel,
		MitigationActive:         s.mitigationActive,
		ThroughputImprovementPct: s.throughputImprovementPct,
		ChannelSwitches:          s.channelSwitches,
		Cycles:                   s.cycles,
		EmptyCycles:              s.emptyCycles,
		DroppedTicks:             s.droppedTicks,
	}
}

// reset returns all counters and power levels to their defaults. It does not
// stop the scheduler.
func (s *state) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wifiChannel = 0
	s.bleChannel = 0
	s.wifiPower = 100
	s.blePower = 100
	s.mitigationActive = false
	s.interferenceLevel = 0
	s.throughputImprovementPct = 0
	s.channelSwitches = 0
	s.cycles = 0
	s.emptyCycles = 0
	s.droppedTicks = 0
}

func (s *state) dropTick() {
	s.mu.Lock()
	s.droppedTicks++
	s.mu.Unlock()
}
