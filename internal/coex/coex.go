// Package coex implements a closed-loop WiFi/BLE coexistence controller.
// It periodically samples per-channel interference, decides whether the two
// co-located radios are degrading each other, and adapts transmit power and
// operating channel to recover throughput.
package coex

import (
	"context"
	"time"
)

const (
	// TechnologyWiFi attributes a channel slot to the WiFi radio
	TechnologyWiFi Technology = "wifi"

	// TechnologyBLE attributes a channel slot to the BLE radio
	TechnologyBLE Technology = "ble"
)

// Technology identifies which of the two co-resident radios a channel slot
// belongs to.
type Technology string

func (t Technology) String() string {
	return string(t)
}

// ChannelSample is a single per-channel interference measurement. A full set
// of samples is produced for every scan cycle and discarded once the cycle
// has been evaluated.
type ChannelSample struct {
	Channel      int        // Channel index, 1..N
	RSSI         int        // Signed power reading in dBm, roughly -90..0
	Interference int        // Unitless severity score, 0..100, higher is worse
	Technology   Technology // Radio this channel slot is attributed to
	Timestamp    time.Time  // When the measurement was taken
}

// Sampler produces one interference measurement per channel on demand.
// Implementations must be side-effect free from the controller's point of
// view. A returned error means the channel is skipped for the current cycle;
// it never aborts the cycle.
type Sampler interface {
	Sample(ctx context.Context, channel int) (ChannelSample, error)
}

// Radio is the radio-control collaborator. The controller pushes power and
// channel adaptations through it; failures are logged and absorbed, a cycle
// never fails because the radio did not accept a command.
type Radio interface {
	ApplyPower(ctx context.Context, tech Technology, percent int) error
	ApplyChannel(ctx context.Context, tech Technology, channel int) error
}

// Snapshot is an immutable copy of the controller state at a point in time.
type Snapshot struct {
	WiFiChannel              int    // Currently selected WiFi channel, 0 = unset
	BLEChannel               int    // Currently selected BLE channel, 0 = unset
	WiFiPower                int    // WiFi transmit power, percent of maximum
	BLEPower                 int    // BLE transmit power, percent of maximum
	MitigationActive         bool   // True once any mitigation has been applied
	InterferenceLevel        int    // Severity score at the worst channel, last cycle
	ThroughputImprovementPct int    // Estimated gain from the last mitigation
	ChannelSwitches          uint64 // Total channel changes since start or reset
	Enabled                  bool   // Whether the scheduler loop is running
	Cycles                   uint64 // Completed evaluation cycles
	EmptyCycles              uint64 // Cycles with no usable samples
	DroppedTicks             uint64 // Scheduler ticks coalesced away
}

// Stats is the read-only statistics projection over the controller state.
type Stats struct {
	InterferenceLevel        int
	MitigationActive         bool
	ThroughputImprovementPct int
	ChannelSwitches          uint64
	Cycles                   uint64
	EmptyCycles              uint64
	DroppedTicks             uint64
}

// CycleResult describes the outcome of a single evaluation cycle. It is
// handed to registered recorders after the cycle's state mutation completes.
type CycleResult struct {
	Timestamp       time.Time
	Samples         []ChannelSample
	Empty           bool
	WorstChannel    int
	MaxInterference int
	Mitigated       bool
	PowerReduction  int
	ChannelSwitched bool
	NewChannel      int
	SwitchedTech    Technology
	State           Snapshot
}

// Recorder observes completed evaluation cycles. Recorder failures are logged
// by the controller and never fail a cycle.
type Recorder interface {
	ObserveCycle(ctx context.Context, result *CycleResult) error
}
