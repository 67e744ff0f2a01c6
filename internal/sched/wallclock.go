// internal/sched/wallclock.go

package sched

import (
	"context"
	"sync/atomic"
	"time"
)

// WallClock is the real-time source used by RealTimePacer.
type WallClock interface {
	Now() time.Time
	SleepUntil(ctx context.Context, t time.Time) error
}

// SystemClock blocks on real timers and counts how often it had to wait.
type SystemClock struct {
	waits atomic.Int64
}

// NewSystemClock creates a clock backed by package time.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current wall time.
func (c *SystemClock) Now() time.Time { return time.Now() }

// SleepUntil blocks until t or until ctx is done. Instants already in the past
// return immediately.
func (c *SystemClock) SleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}

	c.waits.Add(1)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waits returns how many times SleepUntil actually blocked.
func (c *SystemClock) Waits() int64 {
	return c.waits.Load()
}
