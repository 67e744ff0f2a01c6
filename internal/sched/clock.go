// internal/sched/clock.go

package sched

import (
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Clock is a time cursor that holds waiting shreds. Parents advance their
// child clocks whenever they fast-forward.
type Clock interface {
	Now() VTime
	FastForward(delta VTime) error
	Unschedule(s *Shred) bool
	Clear()
}

// Producer is advanced once per elapsed unit of virtual time while the root
// clock fast-forwards.
type Producer interface {
	Advance(at VTime)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(at VTime)

// Advance implements Producer.
func (f ProducerFunc) Advance(at VTime) { f(at) }

// TimeQueue wakes shreds at absolute virtual times.
type TimeQueue struct {
	now      VTime
	seq      uint64             // registration counter, breaks ties on equal wake times
	rbt      *redblacktree.Tree // entries ordered by wake time then registration
	index    map[*Shred]entryKey
	children []Clock
	producer Producer
}

// NewTimeQueue creates an empty queue at time zero.
func NewTimeQueue() *TimeQueue {
	return &TimeQueue{
		rbt:   redblacktree.NewWith(cmp),
		index: make(map[*Shred]entryKey),
	}
}

// SetProducer installs the sample producer driven by FastForward.
func (q *TimeQueue) SetProducer(p Producer) { q.producer = p }

// Now returns the queue's time cursor.
func (q *TimeQueue) Now() VTime { return q.now }

// Len returns the number of shreds registered directly on this queue.
func (q *TimeQueue) Len() int { return q.rbt.Size() }

// Schedule registers s to wake at the absolute time at. A wake time in the
// past means "as soon as possible". A shred already registered is moved, not
// duplicated.
func (q *TimeQueue) Schedule(s *Shred, at VTime) {
	if at < q.now {
		at = q.now
	}
	if old, ok := q.index[s]; ok {
		q.rbt.Remove(old)
	}

	q.seq++
	key := entryKey{at: at, seq: q.seq}
	q.rbt.Put(key, s)
	q.index[s] = key
	s.parked = StateWaitingOnTime
}

// ScheduleNow registers s to wake at the current time.
func (q *TimeQueue) ScheduleNow(s *Shred) { q.Schedule(s, q.now) }

// Unschedule removes a pending registration for s. It reports whether there
// was one.
func (q *TimeQueue) Unschedule(s *Shred) bool {
	key, ok := q.index[s]
	if !ok {
		return false
	}
	q.rbt.Remove(key)
	delete(q.index, s)
	s.parked = StateSuspended
	return true
}

// Peek returns the earliest shred and its wake time relative to Now.
func (q *TimeQueue) Peek() (*Shred, VTime, bool) {
	node := q.rbt.Left()
	if node == nil {
		return nil, 0, false
	}
	key := node.Key.(entryKey)
	return node.Value.(*Shred), key.at - q.now, true
}

// Pop is Peek, but also removes the entry.
func (q *TimeQueue) Pop() (*Shred, VTime, bool) {
	s, rel, ok := q.Peek()
	if !ok {
		return nil, 0, false
	}
	q.Unschedule(s)
	return s, rel, true
}

// Shreds returns the registered shreds in wake order.
func (q *TimeQueue) Shreds() []*Shred {
	out := make([]*Shred, 0, q.rbt.Size())
	for _, v := range q.rbt.Values() {
		out = append(out, v.(*Shred))
	}
	return out
}

// Clear drops every registration on this queue. Children are untouched.
func (q *TimeQueue) Clear() {
	for s := range q.index {
		s.parked = StateSuspended
	}
	q.rbt.Clear()
	q.index = make(map[*Shred]entryKey)
}

// AddChild makes c follow this queue's time base.
func (q *TimeQueue) AddChild(c Clock) {
	q.children = append(q.children, c)
}

// FastForward advances the queue by delta. The producer sees every elapsed
// unit first, then the children advance in registration order, and only then
// does this queue's cursor move.
func (q *TimeQueue) FastForward(delta VTime) error {
	if delta < 0 {
		return fmt.Errorf("time queue at %d, delta %d: %w", q.now, delta, ErrTimeReversal)
	}

	if q.producer != nil {
		for t := q.now; t < q.now+delta; t++ {
			q.producer.Advance(t)
		}
	}

	for _, c := range q.children {
		if err := c.FastForward(delta); err != nil {
			return err
		}
	}

	q.now += delta
	return nil
}

// entryKey is used as a key in the red-black tree.
type entryKey struct {
	at  VTime
	seq uint64
}

// cmp orders entries by wake time, then by registration.
func cmp(a, b any) int {
	ka, kb := a.(entryKey), b.(entryKey)
	switch {
	case ka.at < kb.at:
		return -1
	case ka.at > kb.at:
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

var (
	_ Clock = (*TimeQueue)(nil)
	_ Clock = (*EventQueue)(nil)
)
