package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/coex-control/coexd/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	return renderSession(ctx, store, config, logger)
}

func renderSession(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) error {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %d not found", config.SessionID)
	}

	cycles, err := store.Cycles(ctx, config.SessionID)
	if err != nil {
		return err
	}
	samples, err := store.Samples(ctx, config.SessionID)
	if err != nil {
		return err
	}

	grid := buildGrid(cycles, samples)
	start, end := grid.TimeSpan()

	if config.Verbose {
		logger.Info("finished reading data points",
			slog.Group("stats",
				slog.String("minTimestamp", start.Local().Format(time.DateTime)),
				slog.String("maxTimestamp", end.Local().Format(time.DateTime)),
				slog.Int("channels", grid.Channels),
				slog.Int("cycles", len(grid.Rows)),
			))
	}

	renderer, err := NewHeatMapRenderer(RenderConfig{
		CellWidth:     config.CellWidth,
		CellHeight:    config.CellHeight,
		FontFile:      config.FontFile,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating heat map renderer: %w", err)
	}

	logger.Info("rendering heat map",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("channels", grid.Channels),
			slog.Int("cycles", len(grid.Rows)),
		))

	img, err := renderer.Render(grid)
	if err != nil {
		return fmt.Errorf("rendering heat map: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
