// Package stripe is a small Stripe REST client.
//
// Stripe takes form-encoded bodies with bracketed keys for nested values
// (metadata[plan]=pro, items[0][price]=price_123) and answers with JSON.
// Objects are left untyped: tools forward them to the caller as-is.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/httpx"
)

// Service is the name used in errors and audit entries.
const Service = "stripe"

// DefaultBaseURL is the live API root.
const DefaultBaseURL = "https://api.stripe.com/v1"

// Params are request parameters. Nested maps and slices are encoded with
// Stripe's bracket syntax.
type Params = map[string]any

// Object is a Stripe API object.
type Object map[string]any

// ID returns the object id.
func (o Object) ID() string {
	s, _ := o["id"].(string)
	return s
}

// List is a list or search response.
type List struct {
	Object   string   `json:"object"`
	Data     []Object `json:"data"`
	HasMore  bool     `json:"has_more"`
	NextPage string   `json:"next_page,omitempty"`
	URL      string   `json:"url"`
}

// Client talks to the Stripe API with one secret key.
type Client struct {
	rest *httpx.Client
	live bool
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	base string
	http []httpx.Option
}

// WithBaseURL overrides the API root (tests).
func WithBaseURL(u string) Option {
	return func(s *settings) { s.base = u }
}

// WithHTTPOptions forwards options to the REST client.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(s *settings) { s.http = append(s.http, opts...) }
}

// New returns a client, or apierr.ErrUnavailable when no key is set.
func New(secretKey string, opts ...Option) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key not configured", apierr.ErrUnavailable)
	}
	s := settings{base: DefaultBaseURL}
	for _, opt := range opts {
		opt(&s)
	}
	auth := httpx.WithAuth(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+secretKey)
	})
	return &Client{
		rest: httpx.New(Service, s.base, append([]httpx.Option{auth, httpx.WithErrorDecoder(decodeError)}, s.http...)...),
		live: strings.HasPrefix(secretKey, "sk_live_"),
	}, nil
}

// Live reports whether the key is a live-mode key.
func (c *Client) Live() bool { return c.live }

// Close releases pooled connections.
func (c *Client) Close() { c.rest.CloseIdleConnections() }

type idempotencyKey struct{}

// WithIdempotencyKey attaches key to ctx. Every POST made with ctx sends it,
// so retries of the same tool call are deduplicated by Stripe.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// NewIdempotencyKey attaches a fresh random key to ctx.
func NewIdempotencyKey(ctx context.Context) context.Context {
	return WithIdempotencyKey(ctx, uuid.NewString())
}

// IdempotencyKey returns the key attached to ctx, if any.
func IdempotencyKey(ctx context.Context) string {
	k, _ := ctx.Value(idempotencyKey{}).(string)
	return k
}

func (c *Client) get(ctx context.Context, path string, p Params, out any) error {
	_, err := c.rest.Do(ctx, httpx.Request{Method: http.MethodGet, Path: path, Query: Encode(p)}, out)
	return err
}

func (c *Client) post(ctx context.Context, path string, p Params, out any) error {
	key := IdempotencyKey(ctx)
	if key == "" {
		key = uuid.NewString()
	}
	req := httpx.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   httpx.Form(Encode(p)),
		Header: http.Header{"Idempotency-Key": {key}},
	}
	_, err := c.rest.Do(ctx, req, out)
	return err
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	_, err := c.rest.Do(ctx, httpx.Request{Method: http.MethodDelete, Path: path}, out)
	return err
}

// decodeError parses {"error":{"type":..,"code":..,"message":..,"param":..}}.
func decodeError(status int, body []byte) *apierr.Error {
	var v struct {
		Error struct {
			Type        string `json:"type"`
			Code        string `json:"code"`
			DeclineCode string `json:"decline_code"`
			Message     string `json:"message"`
			Param       string `json:"param"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &v)

	e := &apierr.Error{Service: Service, Status: status, Message: v.Error.Message}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	data := map[string]any{}
	for k, s := range map[string]string{
		"type":         v.Error.Type,
		"code":         v.Error.Code,
		"decline_code": v.Error.DeclineCode,
		"param":        v.Error.Param,
	} {
		if s != "" {
			data[k] = s
		}
	}
	if len(data) > 0 {
		e.Data = data
	}
	return e
}
