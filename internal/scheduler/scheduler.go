package scheduler

import (
	"context"
	"time"
)

// Scheduler runs periodic chore maintenance such as carrying overdue turns
// over to the current day.
type Scheduler interface {
	// Start begins the scheduling loop. Blocks until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler.
	Stop() error

	// Tick runs a single maintenance iteration. Used for testing.
	Tick(ctx context.Context) error

	// Stats reports the last successful tick and the chores carried so far.
	Stats() (lastRun time.Time, carried int)
}
