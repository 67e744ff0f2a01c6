// internal/sched/pacer.go

package sched

import (
	"context"
	"time"
)

// Pacer decides how a scheduler's root clock moves forward. It is the only
// part of the run loop that differs between pacing strategies.
type Pacer interface {
	Advance(ctx context.Context, clock *TimeQueue, delta VTime) error
}

// VirtualPacer advances virtual time as fast as the producer allows.
type VirtualPacer struct{}

// Advance implements Pacer.
func (VirtualPacer) Advance(_ context.Context, clock *TimeQueue, delta VTime) error {
	return clock.FastForward(delta)
}

// RealTimePacer holds every advance back until the wall clock reaches the
// instant matching the target virtual time, at Rate units per second.
type RealTimePacer struct {
	Rate  int64
	Clock WallClock

	anchored   bool
	wallAnchor time.Time
	vAnchor    VTime
}

// NewRealTimePacer creates a pacer for rate units per second. A nil clock
// uses the system clock.
func NewRealTimePacer(rate int64, clock WallClock) *RealTimePacer {
	if clock == nil {
		clock = NewSystemClock()
	}
	if rate <= 0 {
		rate = 1
	}
	return &RealTimePacer{Rate: rate, Clock: clock}
}

// Reset forgets the wall-clock anchor; the next advance re-anchors at the
// current wall time and virtual time.
func (p *RealTimePacer) Reset() { p.anchored = false }

// Advance implements Pacer. A cancelled wait leaves the clock untouched.
func (p *RealTimePacer) Advance(ctx context.Context, clock *TimeQueue, delta VTime) error {
	if delta < 0 {
		return clock.FastForward(delta)
	}

	if !p.anchored {
		p.wallAnchor = p.Clock.Now()
		p.vAnchor = clock.Now()
		p.anchored = true
	}

	target := p.wallAnchor.Add(p.span(clock.Now() + delta - p.vAnchor))
	if err := p.Clock.SleepUntil(ctx, target); err != nil {
		return err
	}
	return clock.FastForward(delta)
}

func (p *RealTimePacer) span(v VTime) time.Duration {
	return time.Duration(float64(v) / float64(p.Rate) * float64(time.Second))
}

// resetter is implemented by pacers that keep state across a run.
type resetter interface {
	Reset()
}

var (
	_ Pacer    = VirtualPacer{}
	_ Pacer    = (*RealTimePacer)(nil)
	_ resetter = (*RealTimePacer)(nil)
)
