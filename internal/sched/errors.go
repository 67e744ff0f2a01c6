package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeReversal is returned when a clock is asked to move backwards.
	ErrTimeReversal = errors.New("sched: cannot fast-forward by a negative delta")

	// ErrAlreadyRunning is returned by Run and RunUntil when a run loop is
	// already active on the scheduler.
	ErrAlreadyRunning = errors.New("sched: run loop already active")

	// ErrNotCurrent is logged when a suspend is attempted from outside the
	// body of the shred being resumed.
	ErrNotCurrent = errors.New("sched: shred is not the current shred")
)

// ShredPanic is the failure recorded for a shred whose body panicked.
type ShredPanic struct {
	Value any
	Stack []byte
}

func (p *ShredPanic) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (p *ShredPanic) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}
