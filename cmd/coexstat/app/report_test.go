package app

import (
	"math"
	"testing"

	"github.com/coex-control/coexd/internal/coex"
	"github.com/coex-control/coexd/internal/storage"
)

func TestBuildSummary(t *testing.T) {
	cycles := []*storage.CycleRecord{
		{WorstChannel: 3, MaxInterference: 40, ThroughputImprovementPct: 0},
		{Empty: true},
		{WorstChannel: 6, MaxInterference: 85, Mitigated: true, ChannelSwitched: true, ThroughputImprovementPct: 16},
		{WorstChannel: 6, MaxInterference: 72, Mitigated: true, ThroughputImprovementPct: 14},
	}
	samples := []storage.SampleRecord{
		{Channel: 1, Interference: 20, Technology: coex.TechnologyWiFi},
		{Channel: 1, Interference: 30, Technology: coex.TechnologyWiFi},
		{Channel: 6, Interference: 85, Technology: coex.TechnologyWiFi},
	}

	s := buildSummary(cycles, samples)

	if s.Cycles != 4 || s.EmptyCycles != 1 {
		t.Errorf("cycles: got (%d, %d), want (4, 1)", s.Cycles, s.EmptyCycles)
	}
	if s.Mitigations != 2 || s.ChannelSwitches != 1 {
		t.Errorf("mitigations: got (%d, %d), want (2, 1)", s.Mitigations, s.ChannelSwitches)
	}
	if s.PeakInterference != 85 || s.WorstChannel != 6 {
		t.Errorf("peak: got (%d, channel %d), want (85, channel 6)", s.PeakInterference, s.WorstChannel)
	}
	if s.LastThroughputPct != 14 {
		t.Errorf("last throughput: got %d, want 14", s.LastThroughputPct)
	}

	if len(s.Channels) != 2 {
		t.Fatalf("channels: got %d, want 2", len(s.Channels))
	}

	ch1 := s.Channels[0]
	if ch1.Channel != 1 || ch1.Samples != 2 {
		t.Errorf("channel 1: got %+v", ch1)
	}
	if math.Abs(ch1.Mean-25) > 1e-9 {
		t.Errorf("channel 1 mean: got %f, want 25", ch1.Mean)
	}
	if ch1.Min != 20 || ch1.Max != 30 {
		t.Errorf("channel 1 range: got (%d, %d), want (20, 30)", ch1.Min, ch1.Max)
	}

	ch6 := s.Channels[1]
	if ch6.Channel != 6 || ch6.StdDev != 0 {
		t.Errorf("channel 6: got %+v", ch6)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := buildSummary(nil, nil)

	if s.Cycles != 0 || len(s.Channels) != 0 {
		t.Errorf("empty summary: got %+v", s)
	}
}
