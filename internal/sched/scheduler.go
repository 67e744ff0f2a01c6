// internal/sched/scheduler.go

package sched

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/rs/xid"
)

// Scheduler takes turns between shreds in virtual-time order.
//
// A Scheduler is not safe for concurrent use. Every method must be called
// either from the goroutine driving Run/RunOne or from the body of the shred
// currently being resumed; the hand-off between the two is what orders
// memory.
type Scheduler struct {
	Options

	clock   *TimeQueue
	events  *EventQueue
	current *Shred
	shreds  map[*Shred]struct{} // every spawned shred not yet retired
	nextID  ShredID
	running bool
	runID   xid.ID
}

// New creates a new Scheduler with one time queue and its event queue.
func New(opts ...Option) *Scheduler {
	clock := NewTimeQueue()
	events := NewEventQueue(clock)
	clock.AddChild(events)

	s := &Scheduler{
		Options: NewOptions(opts...),
		clock:   clock,
		events:  events,
		shreds:  make(map[*Shred]struct{}),
		runID:   xid.New(),
	}
	clock.SetProducer(s.Producer)
	return s
}

// Now is the scheduler's idea of the current virtual time.
func (s *Scheduler) Now() VTime { return s.clock.Now() }

// Clock returns the root time queue.
func (s *Scheduler) Clock() *TimeQueue { return s.clock }

// Events returns the event queue installed under the root clock.
func (s *Scheduler) Events() *EventQueue { return s.events }

// Current returns the shred being resumed by this scheduler, or nil.
func (s *Scheduler) Current() *Shred { return s.current }

// RunID identifies the most recent run; it stamps every StatusEvent.
func (s *Scheduler) RunID() xid.ID { return s.runID }

// Running reports whether Run or RunUntil is active.
func (s *Scheduler) Running() bool { return s.running }

// AcceptHook registers a status hook.
func (s *Scheduler) AcceptHook(h Hook) {
	s.Hooks = append(s.Hooks, h)
}

// NewShred creates a shred born at the current time without scheduling it.
func (s *Scheduler) NewShred(name string, body Body) *Shred {
	s.nextID++
	sh := newShred(s.nextID, name, s.Now(), body, s.Logger)
	sh.ctx = context.WithValue(sh.ctx, schedulerKey{}, s)
	s.shreds[sh] = struct{}{}

	s.Logger.Debug("adding shred", "shred", sh.Name, "id", sh.ID, "now", s.Now())
	s.emit(StatusSpawn, sh, 0, nil)
	return sh
}

// Spork creates a shred and schedules it to run as soon as possible.
func (s *Scheduler) Spork(name string, body Body) *Shred {
	sh := s.NewShred(name, body)
	s.clock.ScheduleNow(sh)
	return sh
}

// SporkLoop sporks a shred that calls body until the shred is killed or body
// fails. every may be nil, a number of units to yield before each
// iteration, or an Event to wait on before each iteration.
func (s *Scheduler) SporkLoop(name string, every any, body Body) *Shred {
	return s.Spork(name, func(ctx context.Context) error {
		sh := FromContext(ctx)
		d, timed := toVTime(every)
		for sh.Running() {
			switch {
			case every == nil:
			case timed:
				s.Yield(ctx, d)
			default:
				s.WaitOn(ctx, every)
			}

			if err := body(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Schedule registers sh on the time queue or the event queue depending on
// when: nil means now, any number is an absolute wake time, anything else is
// an event.
func (s *Scheduler) Schedule(sh *Shred, when any) {
	if when == nil {
		s.ScheduleAt(sh, s.Now())
		return
	}
	if at, ok := toVTime(when); ok {
		s.ScheduleAt(sh, at)
		return
	}
	s.ScheduleOn(sh, when)
}

// ScheduleAt wakes sh at the absolute time at on the root clock. Finished
// shreds are not scheduled.
func (s *Scheduler) ScheduleAt(sh *Shred, at VTime) {
	if sh.Finished() {
		return
	}
	s.events.Unschedule(sh)
	s.clock.Schedule(sh, at)
}

// ScheduleOn makes sh wait for ev. Events must be comparable; others are
// rejected with a warning.
func (s *Scheduler) ScheduleOn(sh *Shred, ev Event) {
	if ev == nil || !reflect.TypeOf(ev).Comparable() {
		s.Logger.Warn("ignoring wait on non-comparable event", "shred", sh.Name, "event", ev)
		return
	}
	if sh.Finished() {
		return
	}
	s.clock.Unschedule(sh)
	s.events.Schedule(sh, ev)
}

// Unschedule removes sh from whichever queue holds it.
func (s *Scheduler) Unschedule(sh *Shred) bool {
	return s.clock.Unschedule(sh) || s.events.Unschedule(sh)
}

// RaiseAll wakes every shred waiting on ev at the current time and returns
// how many were woken.
func (s *Scheduler) RaiseAll(ev Event) int {
	if ev == nil || !reflect.TypeOf(ev).Comparable() {
		return 0
	}
	n := s.events.RaiseAll(ev)
	if n > 0 {
		s.Logger.Debug("raised event", "event", ev, "woken", n, "now", s.Now())
		s.emit(StatusRaise, nil, VTime(n), nil)
	}
	return n
}

// Clear unschedules every shred. Cleared shreds stay suspended.
func (s *Scheduler) Clear() {
	s.clock.Clear()
	s.events.Clear()
}

// Kill retires sh and drops it from both queues. A parked body has unwound
// by the time Kill returns; the current shred is retired once it hands
// control back.
func (s *Scheduler) Kill(sh *Shred) {
	sh.Kill()
	if sh != s.current {
		s.drop(sh)
	}
}

// Close clears both queues and kills every shred that has not finished, so no
// parked body outlives the scheduler. Shreds sporked by an unwinding body are
// killed too.
func (s *Scheduler) Close() {
	s.Clear()
	for {
		var victims []*Shred
		for sh := range s.shreds {
			if sh != s.current {
				victims = append(victims, sh)
			}
		}
		if len(victims) == 0 {
			return
		}
		for _, sh := range victims {
			sh.Kill()
			s.drop(sh)
		}
	}
}

// RunOne resumes the earliest shred, fast-forwarding to its wake time first.
// It returns the shred that ran, or nil when nothing is ready.
func (s *Scheduler) RunOne(ctx context.Context) (*Shred, error) {
	sh, rel, ok := s.peek()
	if !ok {
		return nil, nil
	}

	if rel > 0 {
		if err := s.fastForward(ctx, rel); err != nil {
			return nil, err
		}
	}

	s.clock.Unschedule(sh)
	s.invoke(sh)
	return sh, nil
}

// Run takes turns until no shred is waiting on time: every shred finished,
// or the rest wait on events nobody has raised. A done ctx stops the loop
// between turns.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.start(); err != nil {
		return err
	}
	defer s.stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sh, err := s.RunOne(ctx)
		if err != nil {
			return err
		}
		if sh == nil {
			s.emit(StatusIdle, nil, 0, nil)
			return nil
		}
	}
}

// RunUntil takes turns while the next wake time is at or before target, then
// fast-forwards to exactly target. A target in the past does nothing.
func (s *Scheduler) RunUntil(ctx context.Context, target VTime) error {
	if target < s.Now() {
		return nil
	}
	if err := s.start(); err != nil {
		return err
	}
	defer s.stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, rel, ok := s.peek()
		if !ok || s.Now()+rel > target {
			break
		}
		if _, err := s.RunOne(ctx); err != nil {
			return err
		}
	}

	if delta := target - s.Now(); delta > 0 {
		return s.fastForward(ctx, delta)
	}
	return nil
}

// Yield suspends the calling shred for d units on the root clock. It returns
// the time actually yielded; calls from anything but the current shred are
// ignored and yield nothing.
func (s *Scheduler) Yield(ctx context.Context, d VTime) VTime {
	return s.YieldOn(ctx, d, s.clock)
}

// YieldOn is Yield against an explicit time queue.
func (s *Scheduler) YieldOn(ctx context.Context, d VTime, q *TimeQueue) VTime {
	sh := s.suspendable(ctx)
	if sh == nil {
		return 0
	}
	if d < 0 {
		d = 0
	}

	at := q.Now() + d
	s.Unschedule(sh)
	q.Schedule(sh, at)
	sh.advanceTo(at)
	sh.Suspend()
	return d
}

// WaitOn suspends the calling shred until ev is raised.
func (s *Scheduler) WaitOn(ctx context.Context, ev Event) {
	sh := s.suspendable(ctx)
	if sh == nil {
		return
	}
	if ev == nil || !reflect.TypeOf(ev).Comparable() {
		s.Logger.Warn("ignoring wait on non-comparable event", "shred", sh.Name, "event", ev)
		return
	}

	s.ScheduleOn(sh, ev)
	sh.Suspend()
}

func (s *Scheduler) suspendable(ctx context.Context) *Shred {
	sh := FromContext(ctx)
	if sh == nil || sh != s.current || !sh.InBody() {
		s.Logger.Warn("suspend ignored", "err", ErrNotCurrent)
		return nil
	}
	return sh
}

func (s *Scheduler) start() error {
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.runID = xid.New()
	if r, ok := s.Pacer.(resetter); ok {
		r.Reset()
	}
	s.Logger.Debug("shreduler starting", "run", s.runID.String(), "now", s.Now())
	return nil
}

func (s *Scheduler) stop() {
	s.running = false
}

func (s *Scheduler) invoke(sh *Shred) {
	prev := s.current
	s.current = sh

	s.Logger.Debug("resuming shred", "shred", sh.Name, "id", sh.ID, "now", s.Now())
	s.emit(StatusResume, sh, 0, nil)
	sh.Resume()

	s.current = prev
	if sh.Finished() {
		s.retire(sh)
		return
	}
	s.emit(StatusSuspend, sh, 0, nil)
}

// peek is TimeQueue.Peek, but shreds killed while waiting are dropped
// instead of being given a turn.
func (s *Scheduler) peek() (*Shred, VTime, bool) {
	for {
		sh, rel, ok := s.clock.Peek()
		if !ok || !sh.Finished() {
			return sh, rel, ok
		}
		s.drop(sh)
	}
}

// drop unschedules sh and retires it if this scheduler still tracks it.
func (s *Scheduler) drop(sh *Shred) {
	if _, tracked := s.shreds[sh]; !tracked {
		s.Unschedule(sh)
		return
	}
	s.retire(sh)
}

// retire drops a finished or killed shred from every structure.
func (s *Scheduler) retire(sh *Shred) {
	s.Unschedule(sh)
	delete(s.shreds, sh)

	kind := StatusFinish
	switch {
	case sh.Killed():
		kind = StatusKill
	case sh.Err() != nil:
		kind = StatusFail
	}
	s.Logger.Debug("removing shred", "shred", sh.Name, "id", sh.ID, "now", s.Now(), "status", kind.String())
	s.emit(kind, sh, 0, sh.Err())
}

func (s *Scheduler) fastForward(ctx context.Context, delta VTime) error {
	if err := s.Pacer.Advance(ctx, s.clock, delta); err != nil {
		if errors.Is(err, ErrTimeReversal) {
			s.Logger.Warn("fast-forward rejected", "delta", delta, "err", err)
		}
		return err
	}
	s.emit(StatusAdvance, nil, delta, nil)
	return nil
}

func (s *Scheduler) emit(kind StatusKind, sh *Shred, delta VTime, err error) {
	if len(s.Hooks) == 0 {
		return
	}

	ev := StatusEvent{
		Time:  time.Now(),
		RunID: s.runID,
		Now:   s.Now(),
		Kind:  kind,
		Delta: delta,
		Err:   err,
	}
	if sh != nil {
		ev.ShredID = sh.ID
		ev.Name = sh.Name
	}
	for _, h := range s.Hooks {
		h.Func(ev)
	}
}

// toVTime reports whether v is a number and, if so, its value in units.
// Fractions are truncated toward zero.
func toVTime(v any) (VTime, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return VTime(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return VTime(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return VTime(rv.Float()), true
	default:
		return 0, false
	}
}

type schedulerKey struct{}

// SchedulerFrom returns the scheduler that spawned the shred running with
// ctx, or nil.
func SchedulerFrom(ctx context.Context) *Scheduler {
	s, _ := ctx.Value(schedulerKey{}).(*Scheduler)
	return s
}
