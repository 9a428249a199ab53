// Package sim provides a synthetic channel sampler for development and tests.
// It produces a configurable interference landscape: a baseline noise floor
// with optional jitter, plus per-channel hot spots that push individual
// channels over the mitigation thresholds.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coex-control/coexd/internal/coex"
)

const (
	DefaultChannels = 14
	DefaultBaseline = 20
)

// Config describes the synthetic interference landscape.
type Config struct {
	Channels    int         `yaml:"channels"`    // Number of channels, default 14
	Baseline    int         `yaml:"baseline"`    // Interference floor, 0..100
	Jitter      int         `yaml:"jitter"`      // Max random severity added per sample
	Seed        int64       `yaml:"seed"`        // Seed for the jitter source, 0 = time-based
	HotChannels map[int]int `yaml:"hotChannels"` // Channel index to fixed severity override
	BLEChannels []int       `yaml:"bleChannels"` // Channels attributed to the BLE radio
}

// Sampler implements coex.Sampler over the synthetic landscape.
type Sampler struct {
	channels    int
	baseline    int
	jitter      int
	hotChannels map[int]int
	ble         map[int]struct{}

	mu  sync.Mutex
	rng *rand.Rand
}

// New validates the configuration and builds a sampler.
func New(config *Config) (*Sampler, error) {
	channels := config.Channels
	if channels == 0 {
		channels = DefaultChannels
	}
	if channels < 0 {
		return nil, fmt.Errorf("sim: channel count must be positive, got %d", channels)
	}
	if config.Baseline < 0 || config.Baseline > 100 {
		return nil, fmt.Errorf("sim: baseline must be within 0..100, got %d", config.Baseline)
	}
	if config.Jitter < 0 {
		return nil, fmt.Errorf("sim: jitter must not be negative, got %d", config.Jitter)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := Sampler{
		channels:    channels,
		baseline:    config.Baseline,
		jitter:      config.Jitter,
		hotChannels: make(map[int]int, len(config.HotChannels)),
		ble:         make(map[int]struct{}, len(config.BLEChannels)),
		rng:         rand.New(rand.NewSource(seed)),
	}
	for ch, level := range config.HotChannels {
		if ch < 1 || ch > channels {
			return nil, fmt.Errorf("sim: hot channel %d outside 1..%d", ch, channels)
		}
		if level < 0 || level > 100 {
			return nil, fmt.Errorf("sim: hot channel %d severity must be within 0..100, got %d", ch, level)
		}
		s.hotChannels[ch] = level
	}
	for _, ch := range config.BLEChannels {
		s.ble[ch] = struct{}{}
	}

	return &s, nil
}

// Sample produces one synthetic measurement for the channel.
func (s *Sampler) Sample(_ context.Context, channel int) (coex.ChannelSample, error) {
	if channel < 1 || channel > s.channels {
		return coex.ChannelSample{}, fmt.Errorf("sim: channel %d outside 1..%d", channel, s.channels)
	}

	interference := s.baseline
	if hot, ok := s.hotChannels[channel]; ok {
		interference = hot
	} else if s.jitter > 0 {
		s.mu.Lock()
		interference += s.rng.Intn(s.jitter + 1)
		s.mu.Unlock()
	}
	interference = min(interference, 100)

	tech := coex.TechnologyWiFi
	if _, ok := s.ble[channel]; ok {
		tech = coex.TechnologyBLE
	}

	return coex.ChannelSample{
		Channel:      channel,
		RSSI:         rssiFor(interference),
		Interference: interference,
		Technology:   tech,
		Timestamp:    time.Now(),
	}, nil
}

// rssiFor maps a 0..100 severity score onto a plausible -90..-20 dBm reading.
func rssiFor(interference int) int {
	return -90 + (interference*70)/100
}
