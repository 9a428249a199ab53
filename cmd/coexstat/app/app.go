package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/coex-control/coexd/internal/storage"
)

func Run(ctx context.Context, config *Config, out io.Writer) error {
	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.SessionID == 0 {
		return listSessions(ctx, store, out)
	}
	return summarizeSession(ctx, store, config.SessionID, out)
}

func listSessions(ctx context.Context, store storage.Store, out io.Writer) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		_, err = fmt.Fprintln(out, "no sessions recorded")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSAMPLER")
	for _, s := range sessions {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, humanize.Time(s.StartTime), s.SamplerType)
	}
	return w.Flush()
}

func summarizeSession(ctx context.Context, store storage.Store, sessionID int64, out io.Writer) error {
	session, err := store.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %d not found", sessionID)
	}

	cycles, err := store.Cycles(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading cycles: %w", err)
	}
	samples, err := store.Samples(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading samples: %w", err)
	}

	summary := buildSummary(cycles, samples)

	fmt.Fprintf(out, "Session %d (%s sampler, started %s)\n\n",
		session.ID, session.SamplerType, humanize.Time(session.StartTime))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Cycles\t%s\n", humanize.Comma(int64(summary.Cycles)))
	fmt.Fprintf(w, "Empty cycles\t%s\n", humanize.Comma(int64(summary.EmptyCycles)))
	fmt.Fprintf(w, "Mitigations\t%s\n", humanize.Comma(int64(summary.Mitigations)))
	fmt.Fprintf(w, "Channel switches\t%s\n", humanize.Comma(int64(summary.ChannelSwitches)))
	fmt.Fprintf(w, "Peak interference\t%d (channel %d)\n", summary.PeakInterference, summary.WorstChannel)
	fmt.Fprintf(w, "Last throughput gain\t%d%%\n", summary.LastThroughputPct)
	if err = w.Flush(); err != nil {
		return err
	}

	if len(summary.Channels) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tSAMPLES\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, cs := range summary.Channels {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\t%d\t%d\n",
			cs.Channel, humanize.Comma(int64(cs.Samples)), cs.Mean, cs.StdDev, cs.Min, cs.Max)
	}
	return w.Flush()
}
