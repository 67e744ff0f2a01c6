package main

import (
	"github.com/vbauerster/mpb/v8"

	"vshred/internal/sched"
)

// barStep is how many samples pass between progress bar refreshes.
const barStep = 1024

// blackhole consumes every produced sample and optionally reports progress.
type blackhole struct {
	count int64
	last  sched.VTime
	bar   *mpb.Bar
}

func (b *blackhole) Advance(at sched.VTime) {
	b.count++
	b.last = at
	if b.bar != nil && (at+1)%barStep == 0 {
		b.bar.SetCurrent(int64(at) + 1)
	}
}

// flush pushes the last produced sample to the bar.
func (b *blackhole) flush() {
	if b.bar != nil && b.count > 0 {
		b.bar.SetCurrent(int64(b.last) + 1)
	}
}

var _ sched.Producer = (*blackhole)(nil)
