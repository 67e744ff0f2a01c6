// Package units converts human time units into sample counts.
package units

import "vshred/internal/sched"

// DefaultRate is the sample rate used when none is configured.
const DefaultRate Rate = 22050

// Rate is a number of samples per second.
type Rate int64

// Samples converts a sample count. Negative counts clamp to zero.
func (r Rate) Samples(n float64) sched.VTime {
	return clamp(n)
}

// Ms converts milliseconds.
func (r Rate) Ms(x float64) sched.VTime {
	return clamp(x * float64(r) / 1000)
}

// Seconds converts seconds.
func (r Rate) Seconds(x float64) sched.VTime {
	return clamp(x * float64(r))
}

// Minutes converts minutes.
func (r Rate) Minutes(x float64) sched.VTime {
	return clamp(x * float64(r) * 60)
}

// ToSeconds converts a sample count back to seconds for display.
func (r Rate) ToSeconds(t sched.VTime) float64 {
	if r <= 0 {
		return 0
	}
	return float64(t) / float64(r)
}

func clamp(x float64) sched.VTime {
	if x < 0 {
		return 0
	}
	return sched.VTime(x)
}
