// Package hibernate tears down the PocketBase session after a period of
// inactivity and lets the next access bring it back.
//
// The controller is a two-state machine. Check is the recurring function a
// scheduler invokes; Run is the default scheduler. Tests drive Check
// directly with a fake clock instead of waiting on real timers.
package hibernate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpl-au/pbmcp/internal/activity"
)

// Defaults.
const (
	DefaultIdle     = 30 * time.Minute
	DefaultInterval = 5 * time.Minute
)

// State is the controller state.
type State int

const (
	Active State = iota
	Hibernating
)

func (s State) String() string {
	if s == Hibernating {
		return "hibernating"
	}
	return "active"
}

// Resetter is the teardown path shared with a manual session reset.
type Resetter interface {
	Reset()
}

// Timer schedules the next check. It returns a channel that fires once after
// d and a stop function.
type Timer func(d time.Duration) (<-chan time.Time, func())

// Controller watches an activity tracker and hibernates when idle.
type Controller struct {
	tracker  *activity.Tracker
	resetter Resetter
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	release  []func()
	logger   *slog.Logger
	timer    Timer

	mu    sync.Mutex
	state State
	since time.Time
	wake  chan struct{} // closed by Wake while hibernating
}

// Option configures a Controller.
type Option func(*Controller)

// WithIdle sets the idle threshold.
func WithIdle(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.idle = d
		}
	}
}

// WithInterval sets how often Run checks for inactivity.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRelease registers an extra resource to release on hibernation (idle
// HTTP connections of stateless clients, for example).
func WithRelease(fn func()) Option {
	return func(c *Controller) {
		if fn != nil {
			c.release = append(c.release, fn)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithTimer replaces the scheduler's timer (tests).
func WithTimer(t Timer) Option {
	return func(c *Controller) { c.timer = t }
}

// New returns an active controller.
func New(tracker *activity.Tracker, resetter Resetter, opts ...Option) *Controller {
	c := &Controller{
		tracker:  tracker,
		resetter: resetter,
		idle:     DefaultIdle,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		timer:    realTimer,
		wake:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.since = c.now()
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Since returns when the controller entered its current state.
func (c *Controller) Since() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.since
}

// Idle returns the configured idle threshold.
func (c *Controller) Idle() time.Duration { return c.idle }

// Check evaluates inactivity once. An active controller idle for longer than
// the threshold with no open streams resets the session, releases extra
// resources and hibernates.
func (c *Controller) Check() State {
	c.mu.Lock()
	if c.state == Hibernating {
		c.mu.Unlock()
		return Hibernating
	}
	now := c.now()
	idle := c.tracker.Idle(now)
	if idle <= c.idle || c.tracker.Streams() > 0 {
		c.mu.Unlock()
		return Active
	}
	// Teardown runs under mu so a concurrent Wake waits for it and never
	// sees its fresh session discarded. Reset and release hooks must not
	// call back into the controller.
	defer c.mu.Unlock()
	c.state = Hibernating
	c.since = now
	c.resetter.Reset()
	for _, fn := range c.release {
		fn()
	}
	c.logger.Info("hibernating", "idle", idle.Round(time.Second).String())
	return Hibernating
}

// Wake returns a hibernating controller to Active. Cheap when already active.
func (c *Controller) Wake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Hibernating {
		return
	}
	c.state = Active
	c.since = c.now()
	close(c.wake)
	c.wake = make(chan struct{})
	c.logger.Info("waking from hibernation")
}

// Run schedules Check every interval while active and parks while
// hibernating, until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	for {
		c.mu.Lock()
		state, woken := c.state, c.wake
		c.mu.Unlock()

		if state == Hibernating {
			select {
			case <-ctx.Done():
				return
			case <-woken:
			}
			continue
		}

		fire, stop := c.timer(c.interval)
		select {
		case <-ctx.Done():
			stop()
			return
		case <-fire:
			c.Check()
		}
	}
}

func realTimer(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
