// Package observability exposes the controller's counters and gauges as
// Prometheus metrics.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coex-control/coexd/internal/coex"
)

// CoexCollector bundles Prometheus metrics for the coexistence controller and
// implements coex.Recorder so the controller drives it directly.
type CoexCollector struct {
	gatherer prometheus.Gatherer

	Cycles          prometheus.Counter
	EmptyCycles     prometheus.Counter
	Mitigations     prometheus.Counter
	ChannelSwitches prometheus.Counter

	InterferenceLevel     prometheus.Gauge
	ThroughputImprovement prometheus.Gauge
	DroppedTicks          prometheus.Gauge
	TransmitPower         *prometheus.GaugeVec
}

// NewCoexCollector registers the controller metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCoexCollector(reg prometheus.Registerer) (*CoexCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := CoexCollector{
		gatherer: gatherer,
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coex_cycles_total",
			Help: "Total number of completed evaluation cycles.",
		}),
		EmptyCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coex_empty_cycles_total",
			Help: "Cycles where no channel produced a usable sample.",
		}),
		Mitigations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coex_mitigations_total",
			Help: "Cycles where a mitigation action was applied.",
		}),
		ChannelSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coex_channel_switches_total",
			Help: "Channel changes commanded by the mitigation engine.",
		}),
		InterferenceLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coex_interference_level",
			Help: "Severity score (0-100) observed at the worst channel.",
		}),
		ThroughputImprovement: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coex_throughput_improvement_percent",
			Help: "Estimated throughput gain from the last mitigation.",
		}),
		DroppedTicks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coex_dropped_ticks",
			Help: "Scheduler ticks coalesced away while a cycle was in flight.",
		}),
		TransmitPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coex_transmit_power_percent",
			Help: "Transmit power as percent of maximum, per technology.",
		}, []string{"technology"}),
	}

	for _, col := range []prometheus.Collector{
		c.Cycles,
		c.EmptyCycles,
		c.Mitigations,
		c.ChannelSwitches,
		c.InterferenceLevel,
		c.ThroughputImprovement,
		c.DroppedTicks,
		c.TransmitPower,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// ObserveCycle implements coex.Recorder.
func (c *CoexCollector) ObserveCycle(_ context.Context, result *coex.CycleResult) error {
	c.Cycles.Inc()
	c.DroppedTicks.Set(float64(result.State.DroppedTicks))

	if result.Empty {
		c.EmptyCycles.Inc()
		return nil
	}

	c.InterferenceLevel.Set(float64(result.MaxInterference))

	if result.Mitigated {
		c.Mitigations.Inc()
		c.ThroughputImprovement.Set(float64(result.State.ThroughputImprovementPct))
		c.TransmitPower.WithLabelValues(coex.TechnologyWiFi.String()).Set(float64(result.State.WiFiPower))
		c.TransmitPower.WithLabelValues(coex.TechnologyBLE.String()).Set(float64(result.State.BLEPower))
	}
	if result.ChannelSwitched {
		c.ChannelSwitches.Inc()
	}
	return nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CoexCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
