package coex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultChannels is the number of scanned channels (2.4GHz WiFi band).
	DefaultChannels = 14

	// DefaultScanInterval is the period between evaluation cycles.
	DefaultScanInterval = 100 * time.Millisecond

	// DefaultSeverityThreshold gates mitigation: a cycle mitigates only when
	// the worst observed severity score exceeds it.
	DefaultSeverityThreshold = 70

	// DefaultSwitchThreshold gates channel switching on top of power
	// reduction.
	DefaultSwitchThreshold = 75

	// DefaultPowerFloor is the minimum transmit power percent the controller
	// will ever select.
	DefaultPowerFloor = 50
)

var (
	// ErrInvalidConfig is returned by New when the configuration cannot
	// produce a runnable controller.
	ErrInvalidConfig = errors.New("invalid controller configuration")

	// ErrAlreadyRunning is returned by Run when the scheduler loop is active.
	ErrAlreadyRunning = errors.New("controller is already running")
)

// Config holds the controller tunables. Zero values are replaced with the
// package defaults; explicitly negative or out-of-range values refuse to
// start.
type Config struct {
	Channels          int           // Number of scanned channels
	ScanInterval      time.Duration // Period between evaluation cycles
	SeverityThreshold int           // Mitigation gate, 0..100
	SwitchThreshold   int           // Channel-switch gate, 0..100
	PowerFloor        int           // Minimum transmit power percent, 1..100
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		Channels:          DefaultChannels,
		ScanInterval:      DefaultScanInterval,
		SeverityThreshold: DefaultSeverityThreshold,
		SwitchThreshold:   DefaultSwitchThreshold,
		PowerFloor:        DefaultPowerFloor,
	}
}

func (c *Config) applyDefaults() {
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.ScanInterval == 0 {
		c.ScanInterval = DefaultScanInterval
	}
	if c.SeverityThreshold == 0 {
		c.SeverityThreshold = DefaultSeverityThreshold
	}
	if c.SwitchThreshold == 0 {
		c.SwitchThreshold = DefaultSwitchThreshold
	}
	if c.PowerFloor == 0 {
		c.PowerFloor = DefaultPowerFloor
	}
}

func (c Config) validate() error {
	if c.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be positive, got %d", ErrInvalidConfig, c.Channels)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan interval must be positive, got %s", ErrInvalidConfig, c.ScanInterval)
	}
	if c.SeverityThreshold < 0 || c.SeverityThreshold > 100 {
		return fmt.Errorf("%w: severity threshold must be within 0..100, got %d", ErrInvalidConfig, c.SeverityThreshold)
	}
	if c.SwitchThreshold < 0 || c.SwitchThreshold > 100 {
		return fmt.Errorf("%w: switch threshold must be within 0..100, got %d", ErrInvalidConfig, c.SwitchThreshold)
	}
	if c.PowerFloor < 1 || c.PowerFloor > 100 {
		return fmt.Errorf("%w: power floor must be within 1..100, got %d", ErrInvalidConfig, c.PowerFloor)
	}
	return nil
}

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRadio sets the radio-control collaborator that receives power and
// channel adaptations.
func WithRadio(radio Radio) func(*Controller) {
	return func(c *Controller) {
		c.radio = radio
	}
}

// WithRecorder registers a cycle recorder. Recorders are invoked in
// registration order after every completed cycle.
func WithRecorder(rec Recorder) func(*Controller) {
	return func(c *Controller) {
		c.recorders = append(c.recorders, rec)
	}
}

// Controller ties the scan scheduler, the mitigation engine and the
// controller state together. A single Controller owns its state; concurrent
// readers use Snapshot and Stats.
type Controller struct {
	cfg       Config
	sampler   Sampler
	radio     Radio
	recorders []Recorder
	logger    *slog.Logger

	state  *state
	engine engine

	enabled  atomic.Bool
	inFlight atomic.Bool
	running  atomic.Bool

	mu     sync.Mutex
	ticker *time.Ticker
	cancel context.CancelFunc
	done   chan struct{}

	wg sync.WaitGroup
}

// New validates the configuration and builds a controller. The sampler is
// required; the radio and recorders are optional.
func New(cfg Config, sampler Sampler, options ...func(*Controller)) (*Controller, error) {
	if sampler == nil {
		return nil, fmt.Errorf("%w: sampler is required", ErrInvalidConfig)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := Controller{
		cfg:     cfg,
		sampler: sampler,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		state:   newState(cfg.PowerFloor),
		engine: engine{
			channels:          cfg.Channels,
			severityThreshold: cfg.SeverityThreshold,
			switchThreshold:   cfg.SwitchThreshold,
			floor:             cfg.PowerFloor,
		},
	}

	for _, option := range options {
		option(&c)
	}

	return &c, nil
}

// Run starts the scheduler loop and blocks until the context is cancelled or
// Stop is called. An in-flight evaluation cycle always completes before Run
// returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := time.NewTicker(c.cfg.ScanInterval)

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.ticker = ticker
	c.mu.Unlock()

	c.enabled.Store(true)
	c.logger.Info("coexistence controller started",
		slog.Int("channels", c.cfg.Channels),
		slog.Duration("scanInterval", c.cfg.ScanInterval),
		slog.Int("severityThreshold", c.cfg.SeverityThreshold),
		slog.Int("switchThreshold", c.cfg.SwitchThreshold))

	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			c.enabled.Store(false)
			c.wg.Wait() // let the in-flight cycle finish

			c.mu.Lock()
			c.ticker = nil
			c.cancel = nil
			c.done = nil
			c.mu.Unlock()

			close(done)
			c.logger.Info("coexistence controller stopped")
			return nil

		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// Stop disables the scheduler, waits for any in-flight cycle to finish and
// returns once the Run loop has exited. Stopping a stopped controller is a
// no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Enable resumes cycle scheduling after a Disable. The next cycle fires after
// one full scan interval. Enabling an enabled controller is a no-op.
func (c *Controller) Enable() {
	if !c.enabled.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	if c.ticker != nil {
		c.ticker.Reset(c.cfg.ScanInterval)
	}
	c.mu.Unlock()
}

// Disable stops scheduling new cycles without tearing the loop down. An
// in-flight cycle completes; no further ticks are acted upon until Enable.
func (c *Controller) Disable() {
	c.enabled.Store(false)
}

// Enabled reports whether the scheduler is currently acting on ticks.
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// Snapshot returns an immutable copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	s := c.state.snapshot()
	s.Enabled = c.enabled.Load()
	return s
}

// Stats returns the read-only statistics projection.
func (c *Controller) Stats() Stats {
	return c.state.stats()
}

// Reset returns counters and power levels to defaults without stopping the
// scheduler.
func (c *Controller) Reset() {
	c.state.reset()
}

// tick schedules one evaluation cycle. A tick arriving while a cycle is still
// evaluating is dropped, not queued. Reports whether a cycle was scheduled.
func (c *Controller) tick(ctx context.Context) bool {
	if !c.enabled.Load() {
		return false
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		c.state.dropTick()
		return false
	}

	c.wg.Add(1)
	go c.runCycle(ctx)
	return true
}

func (c *Controller) runCycle(ctx context.Context) {
	defer c.wg.Done()
	defer c.inFlight.Store(false)

	now := time.Now()
	samples := make([]ChannelSample, 0, c.cfg.Channels)
	for ch := 1; ch <= c.cfg.Channels; ch++ {
		s, err := c.sampler.Sample(ctx, ch)
		if err != nil {
			// A missing sample excludes the channel from this cycle only.
			c.logger.Debug("channel sample unavailable",
				slog.Int("channel", ch),
				slog.String("error", err.Error()))
			continue
		}
		samples = append(samples, s)
	}

	res := c.engine.evaluate(c.state, now, samples)
	res.State.Enabled = c.enabled.Load()

	switch {
	case res.Empty:
		c.logger.Debug("no usable samples this cycle")
	case res.Mitigated:
		c.applyMitigation(ctx, &res)
		c.logger.Info("mitigation applied",
			slog.Int("worstChannel", res.WorstChannel),
			slog.Int("interference", res.MaxInterference),
			slog.Int("powerReduction", res.PowerReduction),
			slog.Bool("channelSwitched", res.ChannelSwitched))
	}

	for _, rec := range c.recorders {
		if err := rec.ObserveCycle(ctx, &res); err != nil {
			c.logger.Error(fmt.Sprintf("recording cycle: %s", err.Error()))
		}
	}
}

// applyMitigation pushes the adapted power and channel settings to the radio
// collaborator. Radio errors are logged and absorbed.
func (c *Controller) applyMitigation(ctx context.Context, res *CycleResult) {
	if c.radio == nil {
		return
	}

	if err := c.radio.ApplyPower(ctx, TechnologyWiFi, res.State.WiFiPower); err != nil {
		c.logger.Error(fmt.Sprintf("applying wifi power: %s", err.Error()))
	}
	if err := c.radio.ApplyPower(ctx, TechnologyBLE, res.State.BLEPower); err != nil {
		c.logger.Error(fmt.Sprintf("applying ble power: %s", err.Error()))
	}
	if res.ChannelSwitched {
		if err := c.radio.ApplyChannel(ctx, res.SwitchedTech, res.NewChannel); err != nil {
			c.logger.Error(fmt.Sprintf("applying %s channel: %s", res.SwitchedTech, err.Error()))
		}
	}
}
