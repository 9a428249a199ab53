package storage

import (
	"database/sql"
	"time"

	"github.com/coex-control/coexd/internal/coex"
)

// Session describes one controller run recorded in the history database.
type Session struct {
	ID          int64
	StartTime   time.Time
	SamplerType string
	Config      *string // Sampler configuration as stored, usually JSON
}

// CycleRecord is one persisted evaluation cycle.
type CycleRecord struct {
	ID                       int64
	SessionID                int64
	Timestamp                time.Time
	Empty                    bool
	WorstChannel             int
	MaxInterference          int
	Mitigated                bool
	PowerReduction           int
	ChannelSwitched          bool
	NewChannel               int
	WiFiChannel              int
	BLEChannel               int
	WiFiPower                int
	BLEPower                 int
	InterferenceLevel        int
	ThroughputImprovementPct int
	ChannelSwitches          uint64
}

// SampleRecord is one persisted channel measurement.
type SampleRecord struct {
	CycleID      int64
	Timestamp    time.Time
	Channel      int
	RSSI         int
	Interference int
	Technology   coex.Technology
}

type sessionRow struct {
	ID          int64
	StartTime   time.Time
	SamplerType string
	Config      sql.NullString
}

func (r *sessionRow) model() *Session {
	s := Session{
		ID:          r.ID,
		StartTime:   r.StartTime,
		SamplerType: r.SamplerType,
	}
	if r.Config.Valid {
		s.Config = &r.Config.String
	}
	return &s
}
