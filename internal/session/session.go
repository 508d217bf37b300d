// Package session owns the live PocketBase connection.
//
// A Holder keeps at most one client and decides, on every access, whether
// the superuser token is fresh enough to reuse. Authentication failures
// never raise: the session degrades to public-only mode (Valid=false,
// Initialized=true) so that unauthenticated reads keep working when admin
// credentials are stale or wrong.
//
// Concurrent renewals are collapsed with singleflight, so many callers
// racing on an expired session trigger one authentication call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/credential"
	"github.com/jpl-au/pbmcp/internal/httpx"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"golang.org/x/sync/singleflight"
)

// TTL is how long a superuser token is trusted before re-authentication.
const TTL = 30 * time.Minute

// authTimeout bounds a shared authentication call. The call outlives the
// caller that started it, so it cannot borrow that caller's deadline.
const authTimeout = 30 * time.Second

// Session is a snapshot of the holder's state. Client is shared; the other
// fields are copies and mutating them has no effect on the holder.
type Session struct {
	Client          *pocketbase.Client
	AuthenticatedAt time.Time // zero when never authenticated
	Valid           bool      // holds a fresh superuser token
	Initialized     bool      // client exists (possibly public-only)
}

// Age returns how long ago the session authenticated, or 0 if never.
func (s Session) Age(now time.Time) time.Duration {
	if s.AuthenticatedAt.IsZero() {
		return 0
	}
	return now.Sub(s.AuthenticatedAt)
}

// Holder owns the session. Safe for concurrent use.
type Holder struct {
	cfg        credential.Config
	resolveErr error
	now        func() time.Time
	httpOpts   []httpx.Option
	logger     *slog.Logger

	mu    sync.Mutex
	state Session
	gen   uint64 // bumped by Reset; stale auth results are discarded
	auths int    // authentication calls made, for status reporting

	flight singleflight.Group
}

// Option configures a Holder.
type Option func(*Holder)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(h *Holder) { h.now = now }
}

// WithHTTPOptions forwards options to every client the holder creates.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(h *Holder) { h.httpOpts = append(h.httpOpts, opts...) }
}

// WithLogger sets the logger for auth degradation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(h *Holder) { h.logger = l }
}

// New resolves raw and returns a holder. Resolution errors are kept and
// reported on every Get; construction never fails.
func New(raw credential.Raw, opts ...Option) *Holder {
	cfg, err := credential.Resolve(raw)
	h := &Holder{
		cfg:        cfg,
		resolveErr: err,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Config returns the resolved configuration.
func (h *Holder) Config() credential.Config { return h.cfg }

// Err returns the resolution error, if any.
func (h *Holder) Err() error { return h.resolveErr }

// Get returns a usable session, creating the client and renewing the
// superuser token as needed.
func (h *Holder) Get(ctx context.Context) (Session, error) {
	if h.resolveErr != nil {
		var cerr *credential.ConfigurationError
		if errors.As(h.resolveErr, &cerr) && cerr.Has(credential.MsgURLRequired) {
			return Session{}, fmt.Errorf("%w: pocketbase URL not configured", apierr.ErrUnavailable)
		}
		return Session{}, h.resolveErr
	}

	h.mu.Lock()
	if h.state.Client == nil {
		h.state.Client = pocketbase.New(h.cfg.BaseURL, h.httpOpts...)
		h.state.Initialized = true
	}
	if !h.cfg.HasAdmin() {
		// Public-only mode is a named state, not a failure.
		h.state.Valid = false
		s := h.state
		h.mu.Unlock()
		return s, nil
	}
	if h.fresh() {
		s := h.state
		h.mu.Unlock()
		return s, nil
	}
	gen := h.gen
	client := h.state.Client
	h.mu.Unlock()

	_, _, _ = h.flight.Do(fmt.Sprintf("auth-%d", gen), func() (any, error) {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), authTimeout)
		defer cancel()
		h.authenticate(actx, client, gen)
		return nil, nil
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Client == nil {
		// Reset raced with us; hand back a public session on the client we
		// used rather than failing the caller.
		return Session{Client: client, Initialized: true}, nil
	}
	return h.state, nil
}

// fresh reports whether the held token can be reused. Caller holds mu.
func (h *Holder) fresh() bool {
	return h.state.Valid && h.now().Sub(h.state.AuthenticatedAt) <= TTL
}

func (h *Holder) authenticate(ctx context.Context, client *pocketbase.Client, gen uint64) {
	h.mu.Lock()
	if gen != h.gen || h.fresh() {
		h.mu.Unlock()
		return
	}
	h.auths++
	h.mu.Unlock()

	err := client.AuthWithPassword(ctx, h.cfg.AdminIdentity, h.cfg.AdminSecret)

	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen {
		return
	}
	if err != nil {
		h.state.Valid = false
		h.state.Initialized = true
		h.logger.Warn("pocketbase superuser auth failed, continuing unauthenticated",
			"url", h.cfg.BaseURL, "class", apierr.Classify(err).String(), "error", err)
		return
	}
	h.state.Valid = true
	h.state.AuthenticatedAt = h.now()
	h.logger.Debug("pocketbase superuser authenticated", "url", h.cfg.BaseURL)
}

// Invalidate forces re-authentication on the next Get but keeps the client.
func (h *Holder) Invalidate() {
	h.mu.Lock()
	h.state.Valid = false
	h.mu.Unlock()
}

// Reset discards the client and all session state. Used when the client
// itself may be poisoned and by hibernation.
func (h *Holder) Reset() {
	h.mu.Lock()
	old := h.state.Client
	h.state = Session{}
	h.gen++
	h.mu.Unlock()

	if old != nil {
		old.ClearAuth()
		old.Close()
	}
}

// Status returns a snapshot without any I/O.
func (h *Holder) Status() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AuthCount returns how many authentication calls the holder has made.
func (h *Holder) AuthCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.auths
}
