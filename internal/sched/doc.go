// Package sched is a deterministic, virtual-time cooperative scheduler.
//
// Shreds are resumable bodies that take turns on a single logical thread.
// Each one runs until it lets time pass (Yield / Play) or waits for an event
// (WaitOn); the scheduler then resumes whichever shred wakes earliest,
// fast-forwarding the clock tree exactly as far as needed. Shreds waking at
// the same instant run in the order they were scheduled.
package sched

//go:generate mockgen -destination mock_sched/mock_sched.go -package mock_sched vshred/internal/sched Producer,WallClock
