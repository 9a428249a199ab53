package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coex-control/coexd/internal/coex"
)

func testStore(t *testing.T) *SqliteStore {
	t.Helper()

	store := NewSqliteStore(filepath.Join(t.TempDir(), "coex_history.sqlite"))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func testCycleResult(ts time.Time) *coex.CycleResult {
	return &coex.CycleResult{
		Timestamp:       ts,
		WorstChannel:    2,
		MaxInterference: 100,
		Mitigated:       true,
		PowerReduction:  50,
		ChannelSwitched: true,
		NewChannel:      5,
		SwitchedTech:    coex.TechnologyWiFi,
		Samples: []coex.ChannelSample{
			{Channel: 1, RSSI: -80, Interference: 15, Technology: coex.TechnologyWiFi, Timestamp: ts},
			{Channel: 2, RSSI: -20, Interference: 100, Technology: coex.TechnologyWiFi, Timestamp: ts},
			{Channel: 3, RSSI: -85, Interference: 10, Technology: coex.TechnologyBLE, Timestamp: ts},
		},
		State: coex.Snapshot{
			WiFiChannel:              5,
			WiFiPower:                50,
			BLEPower:                 50,
			MitigationActive:         true,
			InterferenceLevel:        100,
			ThroughputImprovementPct: 100,
			ChannelSwitches:          1,
			Cycles:                   1,
		},
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "sim", map[string]int{"channels": 14})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero session id")
	}

	session, err := store.Session(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session == nil {
		t.Fatal("session not found")
	}
	if session.SamplerType != "sim" {
		t.Errorf("sampler type: got %q, want %q", session.SamplerType, "sim")
	}
	if session.Config == nil || *session.Config != `{"channels":14}` {
		t.Errorf("config: got %v", session.Config)
	}

	missing, err := store.Session(ctx, id+100)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("expected nil for a missing session")
	}
}

func TestStoreCycleRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "sim", nil)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	cycleID, err := store.StoreCycle(ctx, sessionID, testCycleResult(ts))
	if err != nil {
		t.Fatal(err)
	}
	if cycleID == 0 {
		t.Fatal("expected a non-zero cycle id")
	}

	cycles, err := store.Cycles(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 1 {
		t.Fatalf("cycles: got %d, want 1", len(cycles))
	}

	c := cycles[0]
	if c.WorstChannel != 2 || c.MaxInterference != 100 {
		t.Errorf("worst channel: got (%d, %d), want (2, 100)", c.WorstChannel, c.MaxInterference)
	}
	if !c.Mitigated || !c.ChannelSwitched || c.NewChannel != 5 {
		t.Errorf("decision: got (%v, %v, %d)", c.Mitigated, c.ChannelSwitched, c.NewChannel)
	}
	if c.WiFiPower != 50 || c.BLEPower != 50 || c.ThroughputImprovementPct != 100 {
		t.Errorf("state: got (%d, %d, %d)", c.WiFiPower, c.BLEPower, c.ThroughputImprovementPct)
	}
	if !c.Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %s, want %s", c.Timestamp, ts)
	}

	samples, err := store.Samples(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("samples: got %d, want 3", len(samples))
	}
	if samples[1].Channel != 2 || samples[1].Interference != 100 {
		t.Errorf("sample 2: got %+v", samples[1])
	}
	if samples[2].Technology != coex.TechnologyBLE {
		t.Errorf("sample 3 technology: got %s, want ble", samples[2].Technology)
	}
}

func TestStoreCycleNil(t *testing.T) {
	store := testStore(t)

	if _, err := store.StoreCycle(context.Background(), 1, nil); err == nil {
		t.Error("expected an error for a nil cycle result")
	}
}

func TestSessionsOrdered(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.CreateSession(ctx, "sim", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateSession(ctx, "survey", "cmd: iw"); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(sessions))
	}
	if sessions[0].SamplerType != "sim" || sessions[1].SamplerType != "survey" {
		t.Errorf("order: got (%s, %s)", sessions[0].SamplerType, sessions[1].SamplerType)
	}
}

func TestCycleRecorder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "sim", nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := NewCycleRecorder(store, sessionID)
	if err := rec.ObserveCycle(ctx, testCycleResult(time.Now())); err != nil {
		t.Fatal(err)
	}

	cycles, err := store.Cycles(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 1 {
		t.Errorf("recorded cycles: got %d, want 1", len(cycles))
	}
}
