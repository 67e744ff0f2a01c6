// internal/sched/shred.go

package sched

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
)

// ShredID uniquely identifies a shred within its scheduler.
type ShredID uint64

// VTime is a point in (or span of) virtual time, measured in samples.
type VTime int64

// Body is the work a shred performs. The context carries the shred itself
// (see FromContext); a non-nil error is reported as a failure.
type Body func(ctx context.Context) error

// State is the lifecycle state of a shred.
type State int

const (
	StateReady State = iota
	StateRunning
	StateWaitingOnTime
	StateWaitingOnEvent
	StateSuspended // paused but registered on no queue
	StateFinished
	StateKilled
)

func (st State) String() string {
	switch st {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateWaitingOnTime:
		return "WaitingOnTime"
	case StateWaitingOnEvent:
		return "WaitingOnEvent"
	case StateSuspended:
		return "Suspended"
	case StateFinished:
		return "Finished"
	case StateKilled:
		return "Killed"
	default:
		return "Unknown"
	}
}

// Shred is a resumable unit of work with its own virtual-time cursor.
//
// The body runs on its own goroutine, but control is handed back and forth
// over unbuffered channels so that exactly one of the resumer and the body
// executes at any instant. Nothing about a shred is shared between
// goroutines that are not part of that hand-off, so independent schedulers
// may run on different goroutines.
type Shred struct {
	ID   ShredID
	Name string

	now    VTime
	state  State
	parked State // which queue holds the shred while it is suspended
	err    error
	body   Body
	ctx    context.Context
	log    *slog.Logger

	started  bool
	inBody   bool // control is inside the body, set and cleared by Resume
	resumeCh chan struct{}
	yieldCh  chan struct{}
	killCh   chan struct{}
}

// NewShred creates a shred in the Ready state. It does not run until Resume
// is called.
func NewShred(name string, body Body) *Shred {
	return newShred(0, name, 0, body, discardLogger)
}

func newShred(id ShredID, name string, birth VTime, body Body, log *slog.Logger) *Shred {
	if body == nil {
		body = func(context.Context) error { return nil }
	}
	if name == "" {
		name = fmt.Sprintf("shred-%d", id)
	}

	s := &Shred{
		ID:       id,
		Name:     name,
		now:      birth,
		state:    StateReady,
		parked:   StateSuspended,
		body:     body,
		log:      log,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
		killCh:   make(chan struct{}),
	}
	s.ctx = context.WithValue(context.Background(), shredKey{}, s)
	return s
}

type shredKey struct{}

// FromContext returns the shred a body was started with, or nil.
func FromContext(ctx context.Context) *Shred {
	s, _ := ctx.Value(shredKey{}).(*Shred)
	return s
}

// Resume runs the shred until it suspends or terminates. Resuming a finished
// or killed shred does nothing.
func (s *Shred) Resume() {
	if s.Finished() {
		return
	}

	s.state = StateRunning
	s.inBody = true
	if !s.started {
		s.started = true
		go s.run()
	} else {
		s.resumeCh <- struct{}{}
	}
	<-s.yieldCh
	s.inBody = false
}

// run is the body goroutine. Every way out of it, including the
// runtime.Goexit of a killed shred, ends with one send on yieldCh.
func (s *Shred) run() {
	defer func() {
		if r := recover(); r != nil {
			s.fail(&ShredPanic{Value: r, Stack: debug.Stack()})
		}
		if s.state != StateKilled {
			s.state = StateFinished
		}
		s.yieldCh <- struct{}{}
	}()

	if err := s.body(s.ctx); err != nil {
		s.fail(err)
	}
}

func (s *Shred) fail(err error) {
	s.err = err

	attrs := []any{"shred", s.Name, "id", s.ID, "now", s.now, "err", err}
	if p, ok := err.(*ShredPanic); ok {
		attrs = append(attrs, "trace", string(p.Stack))
	}
	s.log.Error("shred exited uncleanly", attrs...)
}

// Suspend parks the calling shred and hands control back to whoever resumed
// it. It must be called from the shred's own body; any other call is ignored
// and reported false.
//
// A killed shred never returns from Suspend: its goroutine unwinds with
// runtime.Goexit, running the body's deferred calls.
func (s *Shred) Suspend() bool {
	if !s.inBody {
		s.log.Warn("suspend ignored", "shred", s.Name, "id", s.ID, "err", ErrNotCurrent)
		return false
	}

	if s.state == StateKilled {
		runtime.Goexit()
	}

	s.state = StateSuspended
	s.yieldCh <- struct{}{}
	select {
	case <-s.resumeCh:
	case <-s.killCh:
		runtime.Goexit()
	}
	return true
}

// Kill retires the shred without running it further. A parked body is
// unwound before Kill returns, so its deferred calls run in the killer's
// turn. A shred that kills itself keeps running until it next suspends or
// returns.
func (s *Shred) Kill() {
	if s.Finished() {
		return
	}

	parked := s.started && !s.inBody
	s.state = StateKilled
	close(s.killCh)
	if parked {
		<-s.yieldCh
	}
}

// InBody reports whether control is currently inside the shred's body,
// including while the body waits on a nested Resume.
func (s *Shred) InBody() bool { return s.inBody }

// State reports the lifecycle state.
func (s *Shred) State() State {
	if s.state == StateSuspended {
		return s.parked
	}
	return s.state
}

// Finished reports whether the shred finished or was killed.
func (s *Shred) Finished() bool {
	return s.state == StateFinished || s.state == StateKilled
}

// Running reports whether the shred can still be resumed.
func (s *Shred) Running() bool { return !s.Finished() }

// Killed reports whether the shred was retired with Kill.
func (s *Shred) Killed() bool { return s.state == StateKilled }

// Now is the shred's own virtual-time cursor.
func (s *Shred) Now() VTime { return s.now }

// Err returns the failure the body ended with, if any.
func (s *Shred) Err() error { return s.err }

func (s *Shred) advanceTo(t VTime) {
	if t > s.now {
		s.now = t
	}
}

func (s *Shred) String() string {
	return fmt.Sprintf("<Shred %d: %s>", s.ID, s.Name)
}
