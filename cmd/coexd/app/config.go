package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coex-control/coexd/internal/sampler/sim"
)

const (
	SamplerSim    SamplerType = "sim"
	SamplerSurvey SamplerType = "survey"
)

type SamplerType string

func (t SamplerType) String() string {
	return string(t)
}

// TimeDuration is a time.Duration with YAML support for values like "100ms".
type TimeDuration time.Duration

func NewTimeDuration(d time.Duration) TimeDuration {
	return TimeDuration(d)
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LogLevel is a slog.Level with YAML support for values like "debug".
type LogLevel slog.Level

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("app.LogLevel: failed to parse: %s", err)
	}

	*l = LogLevel(level)
	return nil
}

func (l LogLevel) Level() slog.Level {
	return slog.Level(l)
}

// Config represents the main application configuration
type Config struct {
	Settings   Settings         `yaml:"settings"`
	Controller ControllerConfig `yaml:"controller"`
	Sampler    SamplerConfig    `yaml:"sampler"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel LogLevel `yaml:"logLevel"`
}

// ControllerConfig represents the coexistence controller tunables. Zero
// values fall back to the controller package defaults.
type ControllerConfig struct {
	Channels          int          `yaml:"channels"`
	ScanInterval      TimeDuration `yaml:"scanInterval"`
	SeverityThreshold int          `yaml:"severityThreshold"`
	SwitchThreshold   int          `yaml:"switchThreshold"`
	PowerFloor        int          `yaml:"powerFloor"`
}

// SamplerConfig selects and configures the channel sampler
type SamplerConfig struct {
	Type   SamplerType  `yaml:"type"`
	Sim    sim.Config   `yaml:"sim"`
	Survey SurveyConfig `yaml:"survey"`
}

// SurveyConfig represents the external survey tool invocation
type SurveyConfig struct {
	Command string       `yaml:"command"`
	Args    []string     `yaml:"args"`
	TTL     TimeDuration `yaml:"ttl"`
	Timeout TimeDuration `yaml:"timeout"`
}

// StorageConfig represents history storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// MetricsConfig represents the Prometheus exposition endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	config := Config{
		Sampler: SamplerConfig{Type: SamplerSim},
		Metrics: MetricsConfig{Listen: ":9100"},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Sampler.Type {
	case SamplerSim:
	case SamplerSurvey:
		if c.Sampler.Survey.Command == "" {
			return fmt.Errorf("survey sampler requires a command")
		}
	default:
		return fmt.Errorf("unknown sampler type '%s'", c.Sampler.Type)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics endpoint requires a listen address")
	}
	return nil
}
