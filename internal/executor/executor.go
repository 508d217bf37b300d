// Package executor runs backend operations with session recovery.
//
// Every tool call goes through an Executor: it obtains a usable session from
// its Source, runs the operation under a per-attempt timeout, and on a
// recoverable failure resets the source and tries again after a backoff.
// Failures that a fresh session cannot fix (validation, not found, rate
// limits, remote 5xx) are returned after the first attempt.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpl-au/pbmcp/internal/activity"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/session"
)

// Defaults.
const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = time.Second
	DefaultTimeout     = 10 * time.Second
)

// Source supplies the state an operation runs against.
type Source[S any] interface {
	Get(ctx context.Context) (S, error)
	Reset()
}

// Waker is notified before every access so a hibernating server resumes.
type Waker interface {
	Wake()
}

// Result describes a successful execution.
type Result struct {
	Attempts int
}

// Failure is returned when an operation could not be completed.
type Failure struct {
	Class    apierr.Class
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	if f.Attempts > 1 {
		return fmt.Sprintf("%v (after %d attempts)", f.Err, f.Attempts)
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Executor runs operations against a Source.
type Executor[S any] struct {
	src Source[S]
	settings
}

// Option configures an Executor. Options are untyped in S so one option
// slice can configure executors for different sources.
type Option func(*settings)

type settings struct {
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
	tracker     *activity.Tracker
	waker       Waker
	logger      *slog.Logger
	sleep       func(context.Context, time.Duration) error
	name        string
}

// WithMaxAttempts bounds the total number of attempts (minimum 1).
func WithMaxAttempts(n int) Option {
	return func(s *settings) { s.maxAttempts = max(n, 1) }
}

// WithBackoff sets the pause between attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *settings) { s.backoff = d }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithActivity records successful operations on t.
func WithActivity(t *activity.Tracker) Option {
	return func(s *settings) { s.tracker = t }
}

// WithWaker wakes w before every access.
func WithWaker(w Waker) Option {
	return func(s *settings) { s.waker = w }
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithName labels log lines (e.g. "pocketbase").
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithSleep replaces the backoff wait (tests).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *settings) { s.sleep = fn }
}

// New returns an executor over src.
func New[S any](src Source[S], opts ...Option) *Executor[S] {
	s := settings{
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
		sleep:       sleep,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Executor[S]{src: src, settings: s}
}

// MaxAttempts returns the attempt bound.
func (e *Executor[S]) MaxAttempts() int { return e.maxAttempts }

// Execute runs op until it succeeds, fails unrecoverably, or the attempt
// bound is reached. Errors are always *Failure.
func (e *Executor[S]) Execute(ctx context.Context, op func(ctx context.Context, s S) error) (Result, error) {
	if e.waker != nil {
		e.waker.Wake()
	}

	var last error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, e.fail(err, attempt-1)
		}

		s, err := e.src.Get(ctx)
		if err != nil {
			// Configuration problems do not get better with retries.
			return Result{}, e.fail(err, attempt)
		}

		err = e.attempt(ctx, s, op)
		if err == nil {
			if e.tracker != nil {
				e.tracker.Touch()
			}
			return Result{Attempts: attempt}, nil
		}
		last = err

		class := apierr.Classify(err)
		if !class.Recoverable() || attempt == e.maxAttempts {
			return Result{}, e.fail(err, attempt)
		}

		e.logger.Debug("operation failed, resetting session",
			"service", e.name, "attempt", attempt, "class", class.String(), "error", err)
		e.src.Reset()

		if err := e.sleep(ctx, e.backoff); err != nil {
			return Result{}, e.fail(last, attempt)
		}
	}
	return Result{}, e.fail(last, e.maxAttempts)
}

func (e *Executor[S]) attempt(ctx context.Context, s S, op func(context.Context, S) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	err := op(ctx, s)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func (e *Executor[S]) fail(err error, attempts int) error {
	return &Failure{Class: apierr.Classify(err), Attempts: attempts, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sessions adapts a session holder as a Source.
func Sessions(h *session.Holder) Source[session.Session] {
	return holderSource{h}
}

type holderSource struct{ h *session.Holder }

func (s holderSource) Get(ctx context.Context) (session.Session, error) { return s.h.Get(ctx) }
func (s holderSource) Reset()                                           { s.h.Reset() }

// Static returns a Source that always yields v, or err when v is not
// configured. Reset is a no-op: stateless clients have nothing to rebuild.
func Static[S any](v S, err error) Source[S] {
	return staticSource[S]{v: v, err: err}
}

type staticSource[S any] struct {
	v   S
	err error
}

func (s staticSource[S]) Get(context.Context) (S, error) { return s.v, s.err }
func (s staticSource[S]) Reset()                         {}
