// internal/sched/eventclock.go

package sched

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Event names something shreds can wait on. Any comparable value works;
// events carry no payload and are never buffered.
type Event any

// EventQueue holds shreds waiting on named events. Its time cursor follows
// its parent; readiness depends only on RaiseAll.
type EventQueue struct {
	parent  *TimeQueue
	now     VTime
	waiters *linkedhashmap.Map // Event -> *linkedhashset.Set of *Shred, in wait order
	index   map[*Shred]Event
}

// NewEventQueue creates an event queue that wakes shreds onto parent. The
// caller still has to install it with parent.AddChild.
func NewEventQueue(parent *TimeQueue) *EventQueue {
	return &EventQueue{
		parent:  parent,
		now:     parent.Now(),
		waiters: linkedhashmap.New(),
		index:   make(map[*Shred]Event),
	}
}

// Now returns the queue's time cursor.
func (q *EventQueue) Now() VTime { return q.now }

// Len returns the number of waiting shreds across all events.
func (q *EventQueue) Len() int { return len(q.index) }

// Waiting returns the number of shreds waiting on ev.
func (q *EventQueue) Waiting(ev Event) int {
	v, found := q.waiters.Get(ev)
	if !found {
		return 0
	}
	return v.(*linkedhashset.Set).Size()
}

// Schedule adds s to the waiters of ev, leaving any event it waited on before.
func (q *EventQueue) Schedule(s *Shred, ev Event) {
	q.Unschedule(s)

	var set *linkedhashset.Set
	if v, found := q.waiters.Get(ev); found {
		set = v.(*linkedhashset.Set)
	} else {
		set = linkedhashset.New()
		q.waiters.Put(ev, set)
	}
	set.Add(s)
	q.index[s] = ev
	s.parked = StateWaitingOnEvent
}

// Unschedule removes s from whichever event it waits on. It reports whether s
// was waiting.
func (q *EventQueue) Unschedule(s *Shred) bool {
	ev, ok := q.index[s]
	if !ok {
		return false
	}
	delete(q.index, s)
	s.parked = StateSuspended

	if v, found := q.waiters.Get(ev); found {
		set := v.(*linkedhashset.Set)
		set.Remove(s)
		if set.Empty() {
			q.waiters.Remove(ev)
		}
	}
	return true
}

// RaiseAll moves every shred waiting on ev onto the parent queue at the
// current time, in the order they started waiting. It returns how many were
// woken; raising an event nobody waits on changes nothing.
func (q *EventQueue) RaiseAll(ev Event) int {
	v, found := q.waiters.Get(ev)
	if !found {
		return 0
	}
	q.waiters.Remove(ev)

	set := v.(*linkedhashset.Set)
	for _, item := range set.Values() {
		s := item.(*Shred)
		delete(q.index, s)
		q.parent.ScheduleNow(s)
	}
	return set.Size()
}

// Clear drops every waiter.
func (q *EventQueue) Clear() {
	for s := range q.index {
		s.parked = StateSuspended
	}
	q.waiters.Clear()
	q.index = make(map[*Shred]Event)
}

// FastForward only moves the cursor; elapsed time never wakes anyone here.
func (q *EventQueue) FastForward(delta VTime) error {
	if delta < 0 {
		return fmt.Errorf("event queue at %d, delta %d: %w", q.now, delta, ErrTimeReversal)
	}
	q.now += delta
	return nil
}
