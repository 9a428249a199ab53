package app

import (
	"time"

	"github.com/coex-control/coexd/internal/storage"
)

// HeatGrid is the severity surface to render: one row per evaluation cycle,
// one column per channel. A nil cell means the channel produced no sample in
// that cycle.
type HeatGrid struct {
	Channels int         // Number of channel columns
	Times    []time.Time // Cycle timestamp per row
	Rows     [][]*int    // Rows[y][x] holds the severity of channel x+1
}

// TimeSpan returns the first and last cycle timestamps.
func (g *HeatGrid) TimeSpan() (time.Time, time.Time) {
	if len(g.Times) == 0 {
		return time.Time{}, time.Time{}
	}
	return g.Times[0], g.Times[len(g.Times)-1]
}

// buildGrid folds the persisted cycles and samples of one session into a
// render-ready grid. Rows follow cycle order; empty cycles produce all-nil
// rows so scan gaps stay visible.
func buildGrid(cycles []*storage.CycleRecord, samples []storage.SampleRecord) *HeatGrid {
	channels := 0
	for _, s := range samples {
		channels = max(channels, s.Channel)
	}

	byCycle := make(map[int64][]storage.SampleRecord)
	for _, s := range samples {
		byCycle[s.CycleID] = append(byCycle[s.CycleID], s)
	}

	g := HeatGrid{
		Channels: channels,
		Times:    make([]time.Time, 0, len(cycles)),
		Rows:     make([][]*int, 0, len(cycles)),
	}
	for _, c := range cycles {
		row := make([]*int, channels)
		for _, s := range byCycle[c.ID] {
			severity := s.Interference
			row[s.Channel-1] = &severity
		}

		g.Times = append(g.Times, c.Timestamp)
		g.Rows = append(g.Rows, row)
	}

	return &g
}
