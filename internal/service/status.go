package service

import (
	"time"

	"github.com/jpl-au/pbmcp/internal/version"
)

// Status is a point-in-time view of the server, gathered without I/O.
type Status struct {
	Version     string            `json:"version"`
	Uptime      string            `json:"uptime"`
	PocketBase  PocketBaseStatus  `json:"pocketbase"`
	Stripe      ServiceStatus     `json:"stripe"`
	Email       ServiceStatus     `json:"email"`
	Activity    ActivityStatus    `json:"activity"`
	Hibernation HibernationStatus `json:"hibernation"`
}

// PocketBaseStatus describes the session.
type PocketBaseStatus struct {
	Configured      bool       `json:"configured"`
	URL             string     `json:"url,omitempty"`
	Admin           bool       `json:"admin_credentials"`
	Initialized     bool       `json:"initialized"`
	Authenticated   bool       `json:"authenticated"`
	AuthenticatedAt *time.Time `json:"authenticated_at,omitempty"`
	SessionAge      string     `json:"session_age,omitempty"`
	AuthCalls       int        `json:"auth_calls"`
	Error           string     `json:"error,omitempty"`
}

// ServiceStatus describes a stateless client.
type ServiceStatus struct {
	Configured bool   `json:"configured"`
	Mode       string `json:"mode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ActivityStatus describes recent usage.
type ActivityStatus struct {
	LastActivity time.Time `json:"last_activity"`
	Idle         string    `json:"idle"`
	OpenStreams  int64     `json:"open_streams"`
}

// HibernationStatus describes the controller.
type HibernationStatus struct {
	State     string    `json:"state"`
	Since     time.Time `json:"since"`
	Threshold string    `json:"threshold"`
}

// Status gathers a snapshot. Secrets are never included.
func (s *Service) Status() Status {
	now := s.now()
	sess := s.holder.Status()
	cfg := s.holder.Config()

	pb := PocketBaseStatus{
		Configured:    s.holder.Err() == nil,
		URL:           cfg.BaseURL,
		Admin:         cfg.HasAdmin(),
		Initialized:   sess.Initialized,
		Authenticated: sess.Valid,
		AuthCalls:     s.holder.AuthCount(),
	}
	if err := s.holder.Err(); err != nil {
		pb.Error = err.Error()
	}
	if sess.Valid {
		at := sess.AuthenticatedAt
		pb.AuthenticatedAt = &at
		pb.SessionAge = sess.Age(now).Round(time.Second).String()
	}

	st := ServiceStatus{Configured: s.stErr == nil}
	if s.stErr != nil {
		st.Error = s.stErr.Error()
	} else if s.stc.Live() {
		st.Mode = "live"
	} else {
		st.Mode = "test"
	}

	em := ServiceStatus{Configured: s.mErr == nil, Mode: s.cfg.EmailProvider()}
	if s.mErr != nil {
		em.Error = s.mErr.Error()
	}

	return Status{
		Version:    version.Short(),
		Uptime:     now.Sub(s.started).Round(time.Second).String(),
		PocketBase: pb,
		Stripe:     st,
		Email:      em,
		Activity: ActivityStatus{
			LastActivity: s.tracker.Last(),
			Idle:         s.tracker.Idle(now).Round(time.Second).String(),
			OpenStreams:  s.tracker.Streams(),
		},
		Hibernation: HibernationStatus{
			State:     s.controller.State().String(),
			Since:     s.controller.Since(),
			Threshold: s.controller.Idle().String(),
		},
	}
}
