// Package storage persists coexistence controller history: scanning sessions,
// per-cycle mitigation decisions and the channel samples behind them. Writes
// go through a WAL connection, reads through a separate read-only connection.
package storage

import (
	"context"

	"github.com/coex-control/coexd/internal/coex"
)

// Store provides access to controller history. All write operations are
// atomic; a cycle and its samples are stored in a single transaction.
type Store interface {
	// CreateSession initializes a new controller session and returns its
	// unique identifier. The config argument can be a string, []byte, or a
	// JSON-serializable object; it is stored verbatim for later inspection.
	CreateSession(ctx context.Context, samplerType string, config any) (int64, error)

	// StoreCycle saves one completed evaluation cycle with its sample set.
	StoreCycle(ctx context.Context, sessionID int64, result *coex.CycleResult) (int64, error)

	// Session retrieves a session by ID.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)

	// Cycles returns a session's cycle records ordered by timestamp.
	Cycles(ctx context.Context, sessionID int64) ([]*CycleRecord, error)

	// Samples returns a session's channel samples ordered by cycle and
	// channel, for offline analysis and rendering.
	Samples(ctx context.Context, sessionID int64) ([]SampleRecord, error)

	// Close releases all database connections. Safe to call multiple times.
	Close() error
}
