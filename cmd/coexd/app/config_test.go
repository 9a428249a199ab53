package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const configYAML = `settings:
  logLevel: debug
controller:
  channels: 14
  scanInterval: 100ms
  severityThreshold: 70
  switchThreshold: 75
  powerFloor: 50
sampler:
  type: sim
  sim:
    baseline: 20
    jitter: 10
    seed: 42
    hotChannels:
      6: 85
    bleChannels: [13, 14]
storage:
  dataDirectory: data
metrics:
  enabled: true
  listen: ":9100"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "coexd.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, configYAML))
	if err != nil {
		t.Fatal(err)
	}

	if config.Settings.LogLevel.Level() != slog.LevelDebug {
		t.Errorf("log level: got %s, want debug", config.Settings.LogLevel.Level())
	}
	if got := time.Duration(config.Controller.ScanInterval); got != 100*time.Millisecond {
		t.Errorf("scan interval: got %s, want 100ms", got)
	}
	if config.Sampler.Type != SamplerSim {
		t.Errorf("sampler type: got %s, want sim", config.Sampler.Type)
	}
	if config.Sampler.Sim.HotChannels[6] != 85 {
		t.Errorf("hot channel 6: got %d, want 85", config.Sampler.Sim.HotChannels[6])
	}
	if config.Metrics.Listen != ":9100" {
		t.Errorf("metrics listen: got %q, want :9100", config.Metrics.Listen)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "storage:\n  dataDirectory: data\n"))
	if err != nil {
		t.Fatal(err)
	}

	if config.Sampler.Type != SamplerSim {
		t.Errorf("sampler type: got %s, want sim", config.Sampler.Type)
	}
	if config.Metrics.Listen != ":9100" {
		t.Errorf("metrics listen: got %q, want :9100", config.Metrics.Listen)
	}
	if config.Settings.LogLevel.Level() != slog.LevelInfo {
		t.Errorf("log level: got %s, want info", config.Settings.LogLevel.Level())
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"unknown sampler", "sampler:\n  type: hardware\n"},
		{"survey without command", "sampler:\n  type: survey\n"},
		{"bad duration", "controller:\n  scanInterval: fast\n"},
		{"bad log level", "settings:\n  logLevel: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.contents)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
