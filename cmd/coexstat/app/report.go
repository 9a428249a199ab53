package app

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/coex-control/coexd/internal/storage"
)

// ChannelStat aggregates every recorded measurement of one channel.
type ChannelStat struct {
	Channel int
	Samples int
	Mean    float64
	StdDev  float64
	Min     int
	Max     int
}

// Summary is the per-session report shown by the CLI.
type Summary struct {
	Cycles            int
	EmptyCycles       int
	Mitigations       int
	ChannelSwitches   int
	DroppedSamples    int
	PeakInterference  int
	WorstChannel      int
	LastThroughputPct int
	Channels          []ChannelStat
}

// buildSummary folds the persisted cycles and samples of one session into a
// report. Channels are ordered by index.
func buildSummary(cycles []*storage.CycleRecord, samples []storage.SampleRecord) *Summary {
	var s Summary

	for _, c := range cycles {
		s.Cycles++
		if c.Empty {
			s.EmptyCycles++
			continue
		}
		if c.Mitigated {
			s.Mitigations++
		}
		if c.ChannelSwitched {
			s.ChannelSwitches++
		}
		if c.MaxInterference > s.PeakInterference {
			s.PeakInterference = c.MaxInterference
			s.WorstChannel = c.WorstChannel
		}
		s.LastThroughputPct = c.ThroughputImprovementPct
	}

	byChannel := make(map[int][]float64)
	for _, sample := range samples {
		byChannel[sample.Channel] = append(byChannel[sample.Channel], float64(sample.Interference))
	}

	for channel, values := range byChannel {
		cs := ChannelStat{
			Channel: channel,
			Samples: len(values),
			Mean:    stat.Mean(values, nil),
			Min:     int(values[0]),
			Max:     int(values[0]),
		}
		if len(values) > 1 {
			cs.StdDev = stat.StdDev(values, nil)
		}
		for _, v := range values {
			cs.Min = min(cs.Min, int(v))
			cs.Max = max(cs.Max, int(v))
		}
		s.Channels = append(s.Channels, cs)
	}
	sort.Slice(s.Channels, func(i, j int) bool {
		return s.Channels[i].Channel < s.Channels[j].Channel
	})

	return &s
}
