// Package radio models the radio-control collaborator that receives power and
// channel adaptations from the coexistence controller. The real collaborator
// talks to the WiFi and BLE PHY drivers; the Loopback implementation here
// records the last applied values and is used in development and tests.
package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/coex-control/coexd/internal/coex"
)

// ErrInvalidSetting is returned when a requested power or channel value is
// outside the accepted range.
var ErrInvalidSetting = errors.New("invalid radio setting")

// WithLogger sets the logger for the loopback radio.
func WithLogger(logger *slog.Logger) func(*Loopback) {
	return func(l *Loopback) {
		l.logger = logger
	}
}

// Loopback is an in-process stand-in for the PHY drivers. It validates and
// remembers the last applied settings per technology.
type Loopback struct {
	logger *slog.Logger

	mu       sync.Mutex
	powers   map[coex.Technology]int
	channels map[coex.Technology]int
}

// NewLoopback creates a loopback radio with a discard logger.
func NewLoopback(options ...func(*Loopback)) *Loopback {
	l := Loopback{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		powers:   make(map[coex.Technology]int),
		channels: make(map[coex.Technology]int),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// ApplyPower records the transmit power for the given technology.
func (l *Loopback) ApplyPower(_ context.Context, tech coex.Technology, percent int) error {
	if percent < 1 || percent > 100 {
		return fmt.Errorf("%w: power %d%% for %s", ErrInvalidSetting, percent, tech)
	}

	l.mu.Lock()
	l.powers[tech] = percent
	l.mu.Unlock()

	l.logger.Debug("transmit power applied",
		slog.String("technology", tech.String()),
		slog.Int("percent", percent))
	return nil
}

// ApplyChannel records the operating channel for the given technology.
func (l *Loopback) ApplyChannel(_ context.Context, tech coex.Technology, channel int) error {
	if channel < 0 {
		return fmt.Errorf("%w: channel %d for %s", ErrInvalidSetting, channel, tech)
	}

	l.mu.Lock()
	l.channels[tech] = channel
	l.mu.Unlock()

	l.logger.Debug("operating channel applied",
		slog.String("technology", tech.String()),
		slog.Int("channel", channel))
	return nil
}

// Power returns the last applied power for the technology, if any.
func (l *Loopback) Power(tech coex.Technology) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.powers[tech]
	return p, ok
}

// Channel returns the last applied channel for the technology, if any.
func (l *Loopback) Channel(tech coex.Technology) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.channels[tech]
	return ch, ok
}
