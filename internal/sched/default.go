package sched

import (
	"context"
	"sync/atomic"
)

var defaultScheduler atomic.Pointer[Scheduler]

// SetDefault installs s as the scheduler used by the package-level helpers.
func SetDefault(s *Scheduler) {
	defaultScheduler.Store(s)
}

// Default returns the installed default scheduler, creating one on first use.
func Default() *Scheduler {
	if s := defaultScheduler.Load(); s != nil {
		return s
	}
	defaultScheduler.CompareAndSwap(nil, New())
	return defaultScheduler.Load()
}

// from picks the scheduler that owns the running shred, falling back to the
// default one.
func from(ctx context.Context) *Scheduler {
	if s := SchedulerFrom(ctx); s != nil {
		return s
	}
	return Default()
}

// Spork schedules a new shred on the default scheduler.
func Spork(name string, body Body) *Shred {
	return Default().Spork(name, body)
}

// SporkLoop schedules a looping shred on the default scheduler.
func SporkLoop(name string, every any, body Body) *Shred {
	return Default().SporkLoop(name, every, body)
}

// Play lets d units of time pass for the calling shred.
func Play(ctx context.Context, d VTime) VTime {
	return from(ctx).Yield(ctx, d)
}

// WaitOn suspends the calling shred until ev is raised.
func WaitOn(ctx context.Context, ev Event) {
	from(ctx).WaitOn(ctx, ev)
}

// Raise wakes every shred waiting on ev. Outside a shred it targets the
// default scheduler.
func Raise(ctx context.Context, ev Event) int {
	return from(ctx).RaiseAll(ev)
}

// Now returns the default scheduler's current time.
func Now() VTime {
	return Default().Now()
}
