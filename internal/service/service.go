// Package service wires the session core and the remote clients together
// from a loaded configuration. Extensions and the MCP server receive a
// *Service through the extension context; nothing else constructs clients.
//
// Construction never fails. A service that is not configured (no PocketBase
// URL, no Stripe key, no mail provider) still starts, and its executors
// report apierr.ErrUnavailable with guidance when a tool needs them.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jpl-au/pbmcp/internal/activity"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/credential"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/executor"
	"github.com/jpl-au/pbmcp/internal/hibernate"
	"github.com/jpl-au/pbmcp/internal/httpx"
	"github.com/jpl-au/pbmcp/internal/session"
	"github.com/jpl-au/pbmcp/internal/stripe"
)

// Stripe allows 25 requests per second in test mode and 100 in live mode.
// The lower figure keeps a runaway tool loop inside both.
const (
	stripeRate  = 25
	stripeBurst = 25
)

// Service owns every long-lived resource of a running server.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
	started time.Time

	tracker    *activity.Tracker
	holder     *session.Holder
	controller *hibernate.Controller

	pb    *executor.Executor[session.Session]
	st    *executor.Executor[*stripe.Client]
	mail  *executor.Executor[email.Sender]
	stc   *stripe.Client
	stErr error
	sndr  email.Sender
	mErr  error
}

// Option configures a Service.
type Option func(*settings)

type settings struct {
	logger      *slog.Logger
	now         func() time.Time
	stripeBase  string
	sendgridURL string
	httpOpts    []httpx.Option
	execOpts    []executor.Option
	hibOpts     []hibernate.Option
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock overrides time.Now for the session, tracker and controller.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithStripeBaseURL points the Stripe client elsewhere (tests).
func WithStripeBaseURL(u string) Option {
	return func(s *settings) { s.stripeBase = u }
}

// WithSendGridBaseURL points the SendGrid sender elsewhere (tests).
func WithSendGridBaseURL(u string) Option {
	return func(s *settings) { s.sendgridURL = u }
}

// WithHTTPOptions adds options to every outbound REST client.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(s *settings) { s.httpOpts = append(s.httpOpts, opts...) }
}

// WithExecutorOptions adds options to every executor.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(s *settings) { s.execOpts = append(s.execOpts, opts...) }
}

// WithHibernateOptions adds options to the hibernation controller.
func WithHibernateOptions(opts ...hibernate.Option) Option {
	return func(s *settings) { s.hibOpts = append(s.hibOpts, opts...) }
}

// New builds a service from cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = &config.Config{}
	}
	st := settings{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&st)
	}

	httpOpts := append([]httpx.Option{httpx.WithTimeout(cfg.Timeout())}, st.httpOpts...)

	s := &Service{
		cfg:     cfg,
		logger:  st.logger,
		now:     st.now,
		started: st.now(),
		tracker: activity.New(st.now),
	}

	s.holder = session.New(credential.Raw{
		URL:      cfg.PocketBase.URL,
		Identity: cfg.PocketBase.AdminEmail,
		Secret:   cfg.PocketBase.AdminPassword,
	},
		session.WithClock(st.now),
		session.WithHTTPOptions(httpOpts...),
		session.WithLogger(st.logger),
	)

	stripeOpts := []stripe.Option{
		stripe.WithHTTPOptions(append([]httpx.Option{httpx.WithRateLimit(stripeRate, stripeBurst)}, httpOpts...)...),
	}
	if st.stripeBase != "" {
		stripeOpts = append(stripeOpts, stripe.WithBaseURL(st.stripeBase))
	}
	s.stc, s.stErr = stripe.New(cfg.Stripe.SecretKey, stripeOpts...)
	s.sndr, s.mErr = newSender(cfg, st.sendgridURL, httpOpts)

	hibOpts := []hibernate.Option{
		hibernate.WithIdle(cfg.IdleThreshold()),
		hibernate.WithInterval(cfg.CheckInterval()),
		hibernate.WithClock(st.now),
		hibernate.WithLogger(st.logger),
		hibernate.WithRelease(s.releaseIdle),
	}
	s.controller = hibernate.New(s.tracker, s.holder, append(hibOpts, st.hibOpts...)...)

	common := func(name string) []executor.Option {
		return append([]executor.Option{
			executor.WithActivity(s.tracker),
			executor.WithWaker(s.controller),
			executor.WithLogger(st.logger),
			executor.WithTimeout(cfg.Timeout()),
			executor.WithName(name),
		}, st.execOpts...)
	}
	s.pb = executor.New(executor.Sessions(s.holder), common("pocketbase")...)
	s.st = executor.New(executor.Static(s.stc, s.stErr), common(stripe.Service)...)
	s.mail = executor.New(executor.Static(s.sndr, s.mErr),
		append(common("email"), executor.WithMaxAttempts(email.MaxAttempts))...)
	return s
}

// newSender returns a nil Sender on error so a failed constructor's typed
// nil never reaches the interface.
func newSender(cfg *config.Config, sendgridURL string, httpOpts []httpx.Option) (email.Sender, error) {
	if cfg.EmailProvider() == config.ProviderSMTP {
		smtp, err := email.NewSMTP(email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.SMTPPort(),
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
		})
		if err != nil {
			return nil, err
		}
		return smtp, nil
	}
	sg, err := email.NewSendGrid(cfg.Email.SendGridAPIKey, sendgridURL, httpOpts...)
	if err != nil {
		return nil, err
	}
	return sg, nil
}

// releaseIdle drops pooled connections of the stateless clients.
func (s *Service) releaseIdle() {
	if s.stc != nil {
		s.stc.Close()
	}
	if sg, ok := s.sndr.(*email.SendGrid); ok && sg != nil {
		sg.Close()
	}
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Logger returns the operational logger.
func (s *Service) Logger() *slog.Logger { return s.logger }

// Tracker returns the activity tracker.
func (s *Service) Tracker() *activity.Tracker { return s.tracker }

// Sessions returns the PocketBase session holder.
func (s *Service) Sessions() *session.Holder { return s.holder }

// Hibernation returns the hibernation controller.
func (s *Service) Hibernation() *hibernate.Controller { return s.controller }

// PocketBase returns the executor for PocketBase operations.
func (s *Service) PocketBase() *executor.Executor[session.Session] { return s.pb }

// Stripe returns the executor for Stripe operations.
func (s *Service) Stripe() *executor.Executor[*stripe.Client] { return s.st }

// Email returns the executor for outgoing mail.
func (s *Service) Email() *executor.Executor[email.Sender] { return s.mail }

// EmailDefaults returns the sender identity applied to messages.
func (s *Service) EmailDefaults() email.Defaults {
	return email.Defaults{From: s.cfg.Email.From, FromName: s.cfg.Email.FromName}
}

// Run drives hibernation until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.controller.Run(ctx)
}

// Close tears down the session and releases pooled connections.
func (s *Service) Close() {
	s.holder.Reset()
	s.releaseIdle()
}
