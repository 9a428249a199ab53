// Package survey implements a channel sampler backed by an external station
// survey tool (iw "survey dump" style output). One tool invocation covers the
// whole band; per-channel results are cached for the scan interval so the
// controller's N Sample calls in a cycle cost a single exec.
package survey

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/coex-control/coexd/internal/coex"
)

const (
	// DefaultTTL keeps one survey run valid for a full 100ms scan cycle.
	DefaultTTL = 80 * time.Millisecond

	// DefaultTimeout bounds a single tool invocation.
	DefaultTimeout = time.Second

	// ParseErrorsThreshold defines the number of malformed survey blocks
	// allowed per run.
	ParseErrorsThreshold = 5
)

var (
	// ErrTooManyParseErrors is returned when a survey run produces more
	// malformed blocks than the threshold allows.
	ErrTooManyParseErrors = errors.New("too many malformed survey blocks")

	// ErrChannelUnavailable is returned when the survey did not report the
	// requested channel; the controller skips the channel for the cycle.
	ErrChannelUnavailable = errors.New("channel missing from survey")
)

// Config describes the external survey tool invocation.
type Config struct {
	Command string        // Tool binary, e.g. "iw"
	Args    []string      // Tool arguments, e.g. dev wlan0 survey dump
	TTL     time.Duration // How long one survey run stays valid
	Timeout time.Duration // Per-invocation deadline
}

// WithLogger sets the logger for the sampler.
func WithLogger(logger *slog.Logger) func(*Sampler) {
	return func(s *Sampler) {
		s.logger = logger.With(slog.String("sampler", "survey"))
	}
}

// WithParseErrorsThreshold sets the threshold for malformed survey blocks.
func WithParseErrorsThreshold(threshold uint8) func(*Sampler) {
	return func(s *Sampler) {
		s.parseErrorsThreshold = threshold
	}
}

// Sampler implements coex.Sampler over the survey tool output.
type Sampler struct {
	command string
	args    []string
	ttl     time.Duration
	timeout time.Duration

	parseErrorsThreshold uint8
	logger               *slog.Logger

	// run invokes the survey tool and returns its stdout. Replaced in tests.
	run func(ctx context.Context) ([]byte, error)

	mu        sync.Mutex
	fetched   time.Time
	byChannel map[int]coex.ChannelSample
}

// New builds a sampler for the configured survey tool.
func New(config *Config, options ...func(*Sampler)) (*Sampler, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("survey: command is required")
	}

	s := Sampler{
		command:              config.Command,
		args:                 config.Args,
		ttl:                  config.TTL,
		timeout:              config.Timeout,
		parseErrorsThreshold: ParseErrorsThreshold,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		byChannel:            make(map[int]coex.ChannelSample),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	s.run = s.runCommand

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// Sample returns the cached measurement for the channel, refreshing the
// survey when the cache has expired.
func (s *Sampler) Sample(ctx context.Context, channel int) (coex.ChannelSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetched) >= s.ttl {
		if err := s.refresh(ctx); err != nil {
			return coex.ChannelSample{}, fmt.Errorf("refreshing survey: %w", err)
		}
	}

	sample, ok := s.byChannel[channel]
	if !ok {
		return coex.ChannelSample{}, fmt.Errorf("%w: channel %d", ErrChannelUnavailable, channel)
	}
	return sample, nil
}

// refresh runs the survey tool and rebuilds the per-channel cache.
// Called with s.mu held.
func (s *Sampler) refresh(ctx context.Context) error {
	output, err := s.run(ctx)
	if err != nil {
		return fmt.Errorf("running %s: %w", s.command, err)
	}

	byChannel, err := parseSurvey(bytes.NewReader(output), s.parseErrorsThreshold, time.Now())
	if err != nil {
		return err
	}

	s.byChannel = byChannel
	s.fetched = time.Now()

	s.logger.Debug("survey refreshed", slog.Int("channels", len(byChannel)))
	return nil
}

func (s *Sampler) runCommand(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return exec.CommandContext(ctx, s.command, s.args...).Output()
}
