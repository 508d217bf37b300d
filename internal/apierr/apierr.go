// Package apierr defines the failure taxonomy shared by every outbound call.
//
// Remote APIs (PocketBase, Stripe, SendGrid) report failures as HTTP status
// codes with service-specific JSON bodies. The clients decode those bodies
// into *Error so the executor and the tool boundary can reason about one
// type. Classify maps any error onto a Class; the class decides whether a
// retry can help and which hint the caller sees.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid or missing connection parameters.
	// Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnavailable means no connection is configured at all.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInvalidInput marks tool arguments rejected before any request is sent.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a failed call to a remote API. Status is 0 for transport
// failures, in which case Err holds the network error.
type Error struct {
	Service string         // "pocketbase", "stripe", "sendgrid", "smtp"
	Status  int            // HTTP status, 0 for transport failures
	Message string         // message reported by the remote service
	Data    map[string]any // structured details (field errors, stripe params)
	Err     error          // underlying transport error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Transport wraps a network-level failure for service.
func Transport(service string, err error) *Error {
	return &Error{Service: service, Err: err}
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
