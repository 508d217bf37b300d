// Package credential turns raw connection settings into a validated
// PocketBase connection descriptor.
//
// Resolution is pure: no network I/O, no logging. Every violation is
// collected so a misconfigured server can be fixed in one pass rather than
// one restart per mistake.
package credential

import (
	"net/url"
	"strings"

	"github.com/jpl-au/pbmcp/internal/apierr"
)

// Violation messages reported by Resolve.
const (
	MsgURLRequired      = "URL required"
	MsgURLInvalid       = "URL must be a valid http(s) URL"
	MsgAdminPair        = "admin email and password must be provided together"
	MsgAdminEmailFormat = "admin email must be an email address"
)

// Raw is the unvalidated configuration bag. Empty strings mean "not set".
type Raw struct {
	URL      string
	Identity string
	Secret   string
}

// Config is a resolved connection descriptor. Treat it as read-only; a
// configuration change means discarding the session and resolving again.
type Config struct {
	BaseURL       string
	AdminIdentity string
	AdminSecret   string
}

// HasAdmin reports whether superuser credentials are configured.
func (c Config) HasAdmin() bool {
	return c.AdminIdentity != "" && c.AdminSecret != ""
}

// ConfigurationError lists every problem found in a Raw configuration.
type ConfigurationError struct {
	Violations []string
}

func (e *ConfigurationError) Error() string {
	return "invalid pocketbase configuration: " + strings.Join(e.Violations, "; ")
}

// Unwrap lets errors.Is(err, apierr.ErrConfiguration) match.
func (e *ConfigurationError) Unwrap() error { return apierr.ErrConfiguration }

// Has reports whether msg is among the violations.
func (e *ConfigurationError) Has(msg string) bool {
	for _, v := range e.Violations {
		if v == msg {
			return true
		}
	}
	return false
}

// Resolve validates raw and returns the connection descriptor, or a
// *ConfigurationError listing every violation.
func Resolve(raw Raw) (Config, error) {
	u := strings.TrimSpace(raw.URL)
	id := strings.TrimSpace(raw.Identity)
	secret := raw.Secret

	var violations []string

	switch {
	case u == "":
		violations = append(violations, MsgURLRequired)
	case !validURL(u):
		violations = append(violations, MsgURLInvalid)
	}

	switch {
	case (id == "") != (secret == ""):
		violations = append(violations, MsgAdminPair)
	case id != "" && !looksLikeEmail(id):
		violations = append(violations, MsgAdminEmailFormat)
	}

	if len(violations) > 0 {
		return Config{}, &ConfigurationError{Violations: violations}
	}

	return Config{
		BaseURL:       strings.TrimRight(u, "/"),
		AdminIdentity: id,
		AdminSecret:   secret,
	}, nil
}

func validURL(s string) bool {
	p, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (p.Scheme == "http" || p.Scheme == "https") && p.Host != ""
}

// looksLikeEmail is a shape check, not RFC 5322 validation. PocketBase
// rejects bad identities itself; this only catches obvious typos such as a
// username pasted into the email slot.
func looksLikeEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}
