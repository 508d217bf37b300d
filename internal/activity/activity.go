// Package activity tracks when the server last did useful work.
//
// The tracker is written by every successful backend call and every inbound
// tool call, and read by the hibernation controller. Writes are "set to now";
// whichever writer wins a race is immaterial, so atomics replace a lock.
package activity

import (
	"sync/atomic"
	"time"
)

// Tracker records the last activity time and the number of open long-lived
// client streams.
type Tracker struct {
	now     func() time.Time
	last    atomic.Int64 // unix nanoseconds
	streams atomic.Int64
}

// New returns a tracker whose last activity is now. A nil clock uses
// time.Now.
func New(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now}
	t.Touch()
	return t
}

// Touch records activity at the current time.
func (t *Tracker) Touch() {
	t.last.Store(t.now().UnixNano())
}

// Last returns the time of the most recent activity.
func (t *Tracker) Last() time.Time {
	return time.Unix(0, t.last.Load())
}

// Idle returns how long the tracker has been idle as of now.
func (t *Tracker) Idle(now time.Time) time.Duration {
	return now.Sub(t.Last())
}

// Open records a new long-lived stream (e.g. an HTTP MCP session).
func (t *Tracker) Open() {
	t.streams.Add(1)
	t.Touch()
}

// Close records the end of a stream. Unbalanced calls never drive the
// count negative.
func (t *Tracker) Close() {
	for {
		n := t.streams.Load()
		if n <= 0 {
			return
		}
		if t.streams.CompareAndSwap(n, n-1) {
			t.Touch()
			return
		}
	}
}

// Streams returns the number of open streams.
func (t *Tracker) Streams() int64 {
	return t.streams.Load()
}
