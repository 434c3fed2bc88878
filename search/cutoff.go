package search

import (
	"context"
	"time"
)

// cutoff combines the soft wall-clock deadline with context cancellation.
type cutoff struct {
	at time.Time
}

func (c cutoff) expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return !c.at.IsZero() && time.Now().After(c.at)
}

// Deadline is the instant at which fraction of budget has elapsed since
// start.
func Deadline(start time.Time, budget time.Duration, fraction float64) time.Time {
	return start.Add(time.Duration(float64(budget) * fraction))
}
