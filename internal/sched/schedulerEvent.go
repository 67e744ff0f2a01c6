// internal/sched/schedulerEvent.go

package sched

import (
	"time"

	"github.com/rs/xid"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusSpawn
	StatusResume
	StatusSuspend
	StatusFinish
	StatusFail
	StatusKill
	StatusRaise
	StatusAdvance
)

// StatusEvent is emitted on every turn, advance and lifecycle change.
type StatusEvent struct {
	Time    time.Time
	RunID   xid.ID
	Now     VTime
	Kind    StatusKind
	ShredID ShredID
	Name    string
	Delta   VTime // elapsed units for StatusAdvance, woken shreds for StatusRaise
	Err     error
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusSpawn:
		return "Spawn"
	case StatusResume:
		return "Resume"
	case StatusSuspend:
		return "Suspend"
	case StatusFinish:
		return "Finish"
	case StatusFail:
		return "Fail"
	case StatusKill:
		return "Kill"
	case StatusRaise:
		return "Raise"
	case StatusAdvance:
		return "Advance"
	default:
		return "Unknown"
	}
}

// Hook receives every StatusEvent a scheduler emits, synchronously and on the
// scheduling goroutine.
type Hook interface {
	Func(ev StatusEvent)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ev StatusEvent)

// Func implements Hook.
func (f HookFunc) Func(ev StatusEvent) { f(ev) }
