package scheduler

import (
	"context"
	"time"
)

// SyncTaskID identifies the periodic synchronization pass.
const SyncTaskID = "sync-pass"

// NewSyncTask creates the task that runs one synchronization pass.
// It runs once on start and then on schedule; timeout bounds a single pass.
func NewSyncTask(schedule Schedule, timeout time.Duration, run TaskFunc) *Task {
	return &Task{
		ID:          SyncTaskID,
		Name:        "Sync Pass",
		Description: "Download configured lists and apply them to nftables sets",
		Schedule:    schedule,
		Enabled:     true,
		RunOnStart:  true,
		Timeout:     timeout,
		Func: func(ctx context.Context) error {
			return run(ctx)
		},
	}
}
