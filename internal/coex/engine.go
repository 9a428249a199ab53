package coex

import "time"

const (
	// maxPowerReduction caps the per-cycle power reduction in percentage points.
	maxPowerReduction = 50

	// channelSwitchOffset is added to the worst channel, modulo the channel
	// count, when picking a replacement channel.
	channelSwitchOffset = 3
)

// engine implements the mitigation decision policy: a hysteresis-free, greedy,
// worst-channel-only scan. O(N) per cycle, trading optimality for
// predictability.
type engine struct {
	channels          int
	severityThreshold int
	switchThreshold   int
	floor             int
}

// evaluate runs one decision cycle over the (possibly partial) sample set and
// mutates st accordingly. An empty sample set is a no-op cycle, not an error.
func (e *engine) evaluate(st *state, ts time.Time, samples []ChannelSample) CycleResult {
	res := CycleResult{
		Timestamp: ts,
		Samples:   samples,
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.cycles++

	if len(samples) == 0 {
		st.emptyCycles++
		res.Empty = true
		res.State = st.snapshotLocked()
		return res
	}

	// Worst channel wins; on ties the first-seen (lowest channel index) sample
	// is kept.
	worst := samples[0]
	for _, s := range samples[1:] {
		if s.Interference > worst.Interference {
			worst = s
		}
	}

	res.WorstChannel = worst.Channel
	res.MaxInterference = worst.Interference

	// The latest observed severity is always published, even when the cycle
	// is gated out.
	st.interferenceLevel = worst.Interference

	if worst.Interference > e.severityThreshold {
		reduction := min(worst.Interference/10, maxPowerReduction)
		st.wifiPower = max(e.floor, 100-reduction)
		st.blePower = max(e.floor, 100-reduction)

		if worst.Interference > e.switchThreshold {
			next := (worst.Channel + channelSwitchOffset) % e.channels
			tech := TechnologyWiFi
			if worst.Technology == TechnologyBLE {
				tech = TechnologyBLE
				st.bleChannel = next
			} else {
				st.wifiChannel = next
			}
			st.channelSwitches++

			res.ChannelSwitched = true
			res.NewChannel = next
			res.SwitchedTech = tech
		}

		st.throughputImprovementPct = reduction * 2
		st.mitigationActive = true

		res.Mitigated = true
		res.PowerReduction = reduction
	}

	res.State = st.snapshotLocked()
	return res
}
