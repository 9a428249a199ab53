package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/coex-control/coexd/internal/coex"
)

func TestObserveCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCoexCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	// An empty cycle counts but moves no gauges.
	if err := c.ObserveCycle(ctx, &coex.CycleResult{Empty: true}); err != nil {
		t.Fatal(err)
	}

	// A mitigated cycle with a channel switch.
	err = c.ObserveCycle(ctx, &coex.CycleResult{
		WorstChannel:    2,
		MaxInterference: 100,
		Mitigated:       true,
		ChannelSwitched: true,
		State: coex.Snapshot{
			WiFiPower:                50,
			BLEPower:                 50,
			ThroughputImprovementPct: 100,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(c.Cycles); got != 2 {
		t.Errorf("cycles: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.EmptyCycles); got != 1 {
		t.Errorf("empty cycles: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Mitigations); got != 1 {
		t.Errorf("mitigations: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ChannelSwitches); got != 1 {
		t.Errorf("channel switches: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.InterferenceLevel); got != 100 {
		t.Errorf("interference level: got %v, want 100", got)
	}
	if got := testutil.ToFloat64(c.TransmitPower.WithLabelValues("wifi")); got != 50 {
		t.Errorf("wifi power: got %v, want 50", got)
	}
}

func TestNewCoexCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := NewCoexCollector(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCoexCollector(reg); err == nil {
		t.Error("expected a duplicate registration error")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCoexCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	if c.Handler() == nil {
		t.Fatal("expected a non-nil handler")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]struct{}, len(families))
	for _, f := range families {
		names[f.GetName()] = struct{}{}
	}
	if _, ok := names["coex_cycles_total"]; !ok {
		t.Error("coex_cycles_total not registered")
	}
}
