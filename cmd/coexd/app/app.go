package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coex-control/coexd/internal/coex"
	"github.com/coex-control/coexd/internal/observability"
	"github.com/coex-control/coexd/internal/radio"
	"github.com/coex-control/coexd/internal/sampler/sim"
	"github.com/coex-control/coexd/internal/sampler/survey"
	"github.com/coex-control/coexd/internal/storage"
)

const (
	storageDir = "data"

	metricsShutdownTimeout = 5 * time.Second
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	smp, samplerConfig, err := createSampler(&config.Sampler, logger)
	if err != nil {
		return fmt.Errorf("failed to create sampler: %w", err)
	}

	sessionID, err := store.CreateSession(ctx, config.Sampler.Type.String(), samplerConfig)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	options := []func(*coex.Controller){
		coex.WithLogger(logger),
		coex.WithRadio(radio.NewLoopback(radio.WithLogger(logger))),
		coex.WithRecorder(storage.NewCycleRecorder(store, sessionID)),
	}

	if config.Metrics.Enabled {
		collector, err := observability.NewCoexCollector(prometheus.NewRegistry())
		if err != nil {
			return fmt.Errorf("failed to create metrics collector: %w", err)
		}
		options = append(options, coex.WithRecorder(collector))
		serveMetrics(ctx, config.Metrics.Listen, collector, logger)
	}

	controller, err := coex.New(coex.Config{
		Channels:          config.Controller.Channels,
		ScanInterval:      time.Duration(config.Controller.ScanInterval),
		SeverityThreshold: config.Controller.SeverityThreshold,
		SwitchThreshold:   config.Controller.SwitchThreshold,
		PowerFloor:        config.Controller.PowerFloor,
	}, smp, options...)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	if err = controller.Run(ctx); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	stats := controller.Stats()
	logger.Info("session finished",
		slog.Int64("sessionId", sessionID),
		slog.Uint64("cycles", stats.Cycles),
		slog.Uint64("emptyCycles", stats.EmptyCycles),
		slog.Uint64("channelSwitches", stats.ChannelSwitches),
		slog.Int("throughputImprovementPct", stats.ThroughputImprovementPct))
	return nil
}

func createSampler(config *SamplerConfig, logger *slog.Logger) (coex.Sampler, any, error) {
	switch config.Type {
	case SamplerSim:
		smp, err := sim.New(&config.Sim)
		if err != nil {
			return nil, nil, err
		}
		return smp, &config.Sim, nil

	case SamplerSurvey:
		surveyConfig := survey.Config{
			Command: config.Survey.Command,
			Args:    config.Survey.Args,
			TTL:     time.Duration(config.Survey.TTL),
			Timeout: time.Duration(config.Survey.Timeout),
		}
		smp, err := survey.New(&surveyConfig, survey.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return smp, &config.Survey, nil

	default:
		return nil, nil, fmt.Errorf("unknown sampler type '%s'", config.Type)
	}
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("coex_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

// serveMetrics exposes the collector on /metrics and shuts the listener down
// when the context is cancelled. Serve errors are logged, not fatal.
func serveMetrics(ctx context.Context, listen string, collector *observability.CoexCollector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	server := &http.Server{Addr: listen, Handler: mux}

	go func() {
		logger.Info("metrics endpoint started", slog.String("listen", listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("metrics endpoint: %s", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("metrics endpoint shutdown: %s", err.Error()))
		}
	}()
}
