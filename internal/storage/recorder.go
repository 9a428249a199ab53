package storage

import (
	"context"
	"fmt"

	"github.com/coex-control/coexd/internal/coex"
)

// CycleRecorder adapts a Store to the controller's Recorder interface,
// persisting every completed cycle under a fixed session.
type CycleRecorder struct {
	store     Store
	sessionID int64
}

// NewCycleRecorder binds a recorder to an existing session.
func NewCycleRecorder(store Store, sessionID int64) *CycleRecorder {
	return &CycleRecorder{
		store:     store,
		sessionID: sessionID,
	}
}

// ObserveCycle implements coex.Recorder.
func (r *CycleRecorder) ObserveCycle(ctx context.Context, result *coex.CycleResult) error {
	if _, err := r.store.StoreCycle(ctx, r.sessionID, result); err != nil {
		return fmt.Errorf("storing cycle: %w", err)
	}
	return nil
}
