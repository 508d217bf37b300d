package executor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jpl-au/pbmcp/internal/activity"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	gets   int
	resets int
	err    error
}

func (f *fakeSource) Get(context.Context) (int, error) {
	f.gets++
	return f.gets, f.err
}

func (f *fakeSource) Reset() { f.resets++ }

type fakeWaker struct{ wakes int }

func (w *fakeWaker) Wake() { w.wakes++ }

func noSleep(slept *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	})
}

func status(code int) error {
	return &apierr.Error{Service: "pocketbase", Status: code, Message: http.StatusText(code)}
}

func TestExecute_Success(t *testing.T) {
	src := &fakeSource{}
	tracker := activity.New(func() time.Time { return time.Unix(0, 0) })
	waker := &fakeWaker{}
	ex := New[int](src, WithActivity(tracker), WithWaker(waker))

	res, err := ex.Execute(context.Background(), func(context.Context, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, waker.wakes)
	assert.Zero(t, src.resets)
}

func TestExecute_RecoverableRetriesOnce(t *testing.T) {
	// 401 then 200: one reset, two attempts, success.
	src := &fakeSource{}
	var slept []time.Duration
	ex := New[int](src, noSleep(&slept), WithBackoff(time.Second))

	calls := 0
	res, err := ex.Execute(context.Background(), func(context.Context, int) error {
		calls++
		if calls == 1 {
			return status(http.StatusUnauthorized)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 1, src.resets)
	assert.Equal(t, []time.Duration{time.Second}, slept)
}

func TestExecute_AttemptBound(t *testing.T) {
	src := &fakeSource{}
	var slept []time.Duration
	ex := New[int](src, noSleep(&slept))

	calls := 0
	_, err := ex.Execute(context.Background(), func(context.Context, int) error {
		calls++
		return status(http.StatusForbidden)
	})
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, calls)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, apierr.ClassForbidden, f.Class)
	assert.Equal(t, DefaultMaxAttempts, f.Attempts)
	assert.Equal(t, 403, apierr.Status(err))
}

func TestExecute_NonRecoverableAttemptedOnce(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		class apierr.Class
	}{
		{"not found", status(404), apierr.ClassNotFound},
		{"validation", status(400), apierr.ClassValidation},
		{"rate limited", status(429), apierr.ClassRateLimited},
		{"remote", status(502), apierr.ClassRemote},
		{"invalid input", apierr.ErrInvalidInput, apierr.ClassValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{}
			ex := New[int](src, WithMaxAttempts(5))
			calls := 0
			_, err := ex.Execute(context.Background(), func(context.Context, int) error {
				calls++
				return tc.err
			})
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, 1, calls)
			assert.Equal(t, 1, f.Attempts)
			assert.Equal(t, tc.class, f.Class)
			assert.Zero(t, src.resets)
		})
	}
}

func TestExecute_SourceErrorNotRetried(t *testing.T) {
	src := &fakeSource{err: apierr.ErrUnavailable}
	ex := New[int](src)

	called := false
	_, err := ex.Execute(context.Background(), func(context.Context, int) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, apierr.ErrUnavailable)
	assert.False(t, called)
	assert.Equal(t, 1, src.gets)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, apierr.ClassUnavailable, f.Class)
}

func TestExecute_AttemptTimeoutIsTransport(t *testing.T) {
	src := &fakeSource{}
	var slept []time.Duration
	ex := New[int](src, WithTimeout(10*time.Millisecond), noSleep(&slept))

	calls := 0
	_, err := ex.Execute(context.Background(), func(ctx context.Context, _ int) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, apierr.ClassTransport, f.Class)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, src.resets)
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	src := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())
	ex := New[int](src, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	calls := 0
	_, err := ex.Execute(ctx, func(context.Context, int) error {
		calls++
		return status(401)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 401, apierr.Status(err))
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New[int](&fakeSource{}).Execute(ctx, func(context.Context, int) error { return nil })
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStatic(t *testing.T) {
	src := Static("client", nil)
	v, err := src.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "client", v)
	src.Reset()

	_, err = Static[*int](nil, apierr.ErrUnavailable).Get(context.Background())
	assert.ErrorIs(t, err, apierr.ErrUnavailable)
}
