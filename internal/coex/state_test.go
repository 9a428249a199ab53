package coex

import "testing"

func TestStateReset(t *testing.T) {
	st := newState(DefaultPowerFloor)

	st.mu.Lock()
	st.wifiChannel = 6
	st.bleChannel = 9
	st.wifiPower = 50
	st.blePower = 50
	st.mitigationActive = true
	st.interferenceLevel = 88
	st.throughputImprovementPct = 100
	st.channelSwitches = 3
	st.cycles = 42
	st.emptyCycles = 2
	st.droppedTicks = 1
	st.mu.Unlock()

	st.reset()

	s := st.snapshot()
	if s.WiFiChannel != 0 || s.BLEChannel != 0 {
		t.Errorf("channels after reset: got (%d, %d), want (0, 0)", s.WiFiChannel, s.BLEChannel)
	}
	if s.WiFiPower != 100 || s.BLEPower != 100 {
		t.Errorf("power after reset: got (%d, %d), want (100, 100)", s.WiFiPower, s.BLEPower)
	}
	if s.MitigationActive || s.InterferenceLevel != 0 || s.ThroughputImprovementPct != 0 {
		t.Error("mitigation state must be cleared by reset")
	}
	if s.ChannelSwitches != 0 || s.Cycles != 0 || s.EmptyCycles != 0 || s.DroppedTicks != 0 {
		t.Error("counters must be cleared by reset")
	}
}

func TestStateSnapshotIsCopy(t *testing.T) {
	st := newState(DefaultPowerFloor)

	first := st.snapshot()

	st.mu.Lock()
	st.wifiPower = 50
	st.mu.Unlock()

	if first.WiFiPower != 100 {
		t.Errorf("snapshot mutated after the fact: got %d, want 100", first.WiFiPower)
	}
	if second := st.snapshot(); second.WiFiPower != 50 {
		t.Errorf("fresh snapshot: got %d, want 50", second.WiFiPower)
	}
}

func TestStateStatsProjection(t *testing.T) {
	st := newState(DefaultPowerFloor)

	st.mu.Lock()
	st.interferenceLevel = 77
	st.mitigationActive = true
	st.throughputImprovementPct = 14
	st.channelSwitches = 2
	st.cycles = 10
	st.mu.Unlock()

	stats := st.stats()
	if stats.InterferenceLevel != 77 || !stats.MitigationActive {
		t.Errorf("stats: got (%d, %v), want (77, true)", stats.InterferenceLevel, stats.MitigationActive)
	}
	if stats.ThroughputImprovementPct != 14 || stats.ChannelSwitches != 2 || stats.Cycles != 10 {
		t.Errorf("stats counters: got (%d, %d, %d)", stats.ThroughputImprovementPct, stats.ChannelSwitches, stats.Cycles)
	}
}
