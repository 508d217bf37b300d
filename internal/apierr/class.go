// class.go maps errors onto failure classes.
//
// The hint and code tables live here rather than in each tool so that every
// tool reports the same failure the same way.

package apierr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
)

// Class is a failure category. It decides retry eligibility and the hint
// shown to the caller.
type Class int

const (
	ClassUnknown Class = iota
	ClassConfiguration
	ClassUnauthorized
	ClassForbidden
	ClassNotFound
	ClassValidation
	ClassTransport
	ClassUnavailable
	ClassRateLimited
	ClassRemote
)

var classNames = map[Class]string{
	ClassUnknown:       "unknown_error",
	ClassConfiguration: "configuration_error",
	ClassUnauthorized:  "unauthorized",
	ClassForbidden:     "forbidden",
	ClassNotFound:      "not_found",
	ClassValidation:    "validation_error",
	ClassTransport:     "transport_error",
	ClassUnavailable:   "unavailable",
	ClassRateLimited:   "rate_limited",
	ClassRemote:        "remote_error",
}

var hints = map[Class]string{
	ClassUnknown:       "unexpected failure; check the server logs for details",
	ClassConfiguration: "fix the listed configuration problems (pbmcp config, or the POCKETBASE_* environment variables) and restart",
	ClassUnauthorized:  "check collection rules or authentication status",
	ClassForbidden:     "check collection rules or authentication status",
	ClassNotFound:      "verify the collection name and record ID exist",
	ClassValidation:    "check the request fields against the collection schema or API documentation",
	ClassTransport:     "the service did not respond in time; check the URL and network connectivity",
	ClassUnavailable:   "the service is not configured; set its URL or API key and restart the server",
	ClassRateLimited:   "too many requests; wait before retrying",
	ClassRemote:        "the remote service failed; try again later",
}

// String returns the snake_case class name.
func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return classNames[ClassUnknown]
}

// Hint returns a human suggestion for fixing failures of this class.
func (c Class) Hint() string {
	if s, ok := hints[c]; ok {
		return s
	}
	return hints[ClassUnknown]
}

// Recoverable reports whether a session reset and retry can improve the odds
// of success. Auth failures usually mean a stale token; transport failures
// are often transient. Everything else is a caller mistake or a remote
// condition that a retry would only repeat.
func (c Class) Recoverable() bool {
	switch c {
	case ClassUnauthorized, ClassForbidden, ClassTransport:
		return true
	default:
		return false
	}
}

// Classify returns the class of err.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	switch {
	case errors.Is(err, ErrUnavailable):
		return ClassUnavailable
	case errors.Is(err, ErrConfiguration):
		return ClassConfiguration
	case errors.Is(err, ErrInvalidInput):
		return ClassValidation
	}

	var e *Error
	if errors.As(err, &e) && e.Status > 0 {
		return classifyStatus(e.Status)
	}

	// Caller cancellation is not a backend fault; retrying would ignore it.
	if errors.Is(err, context.Canceled) {
		return ClassUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransport
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ClassTransport
	}
	if e != nil {
		// Status 0 with no recognisable cause still failed below HTTP.
		return ClassTransport
	}
	return ClassUnknown
}

func classifyStatus(status int) Class {
	switch {
	case status == http.StatusUnauthorized:
		return ClassUnauthorized
	case status == http.StatusForbidden:
		return ClassForbidden
	case status == http.StatusNotFound:
		return ClassNotFound
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ClassTransport
	case status >= 500:
		return ClassRemote
	case status >= 400:
		return ClassValidation
	default:
		return ClassUnknown
	}
}

// Code returns the machine-readable code for err: the HTTP status when the
// remote service returned one, otherwise the class name.
func Code(err error) string {
	if s := Status(err); s > 0 {
		return strconv.Itoa(s)
	}
	return Classify(err).String()
}
