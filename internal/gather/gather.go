// Package gather implements the explicit historical backfill path. Backfill
// is the only operation that writes market data into the fast cache and the
// durable stores; the trading loop's plain reads never do.
package gather

import (
	"context"
	"time"
)

// Gatherer is the interface for data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run starts the data gathering process. It blocks until done or until
	// ctx is cancelled.
	Run(ctx context.Context) error
}

// DateRange represents a time range for data fetching.
type DateRange struct {
	Start time.Time
	End   time.Time
}
