// Package httpx is the shared REST plumbing behind the PocketBase, Stripe
// and SendGrid clients.
//
// Each client supplies its base URL, an auth hook and an error decoder; httpx
// handles request construction, per-request timeouts, rate limiting and the
// conversion of failures into *apierr.Error so that retry classification is
// identical for every service.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/version"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read for decoding.
const maxErrorBody = 64 << 10

// ErrorDecoder turns a non-2xx response body into a service error.
type ErrorDecoder func(status int, body []byte) *apierr.Error

// Client performs requests against one service.
type Client struct {
	service string
	base    string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	auth    func(*http.Request)
	decode  ErrorDecoder
	agent   string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outbound requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
		}
	}
}

// WithAuth sets a hook that adds credentials to each request.
func WithAuth(fn func(*http.Request)) Option {
	return func(c *Client) { c.auth = fn }
}

// WithErrorDecoder sets the service-specific error decoder.
func WithErrorDecoder(fn ErrorDecoder) Option {
	return func(c *Client) { c.decode = fn }
}

// New creates a client for service rooted at baseURL.
func New(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service: service,
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		agent:   "pbmcp/" + version.Short(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.decode == nil {
		c.decode = GenericError(service)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base }

// Service returns the service name used in errors.
func (c *Client) Service() string { return c.service }

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }

// Body is a request payload.
type Body interface {
	ContentType() string
	Reader() (io.Reader, error)
}

type jsonBody struct{ v any }

// JSON encodes v as a JSON body.
func JSON(v any) Body { return jsonBody{v} }

func (b jsonBody) ContentType() string { return "application/json" }
func (b jsonBody) Reader() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return bytes.NewReader(data), nil
}

type formBody struct{ v url.Values }

// Form encodes v as application/x-www-form-urlencoded.
func Form(v url.Values) Body { return formBody{v} }

func (b formBody) ContentType() string { return "application/x-www-form-urlencoded" }
func (b formBody) Reader() (io.Reader, error) {
	return strings.NewReader(b.v.Encode()), nil
}

// Request describes one call.
type Request struct {
	Method string
	Path   string     // joined to the base URL
	Query  url.Values // optional
	Body   Body       // optional
	Header http.Header
}

// Response carries response metadata for callers that need headers.
type Response struct {
	Status int
	Header http.Header
}

// Do performs r and decodes a successful JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, r Request, out any) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apierr.Transport(c.service, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Transport(c.service, err)
	}
	defer resp.Body.Close()

	meta := &Response{Status: resp.StatusCode, Header: resp.Header}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := c.decode(resp.StatusCode, body)
		if e == nil {
			e = &apierr.Error{Status: resp.StatusCode}
		}
		e.Service = c.service
		e.Status = resp.StatusCode
		return meta, e
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return meta, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return meta, nil
		}
		if ctx.Err() != nil {
			return meta, apierr.Transport(c.service, ctx.Err())
		}
		return meta, fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return meta, nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u := c.base + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		rd, err := r.Body.Reader()
		if err != nil {
			return nil, err
		}
		body = rd
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", apierr.ErrInvalidInput, c.service, err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", r.Body.ContentType())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)
	if c.auth != nil {
		c.auth(req)
	}
	return req, nil
}

// GenericError decodes {"message": "..."} style bodies and falls back to the
// raw body text.
func GenericError(service string) ErrorDecoder {
	return func(status int, body []byte) *apierr.Error {
		var v struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		msg := ""
		if json.Unmarshal(body, &v) == nil {
			msg = v.Message
			if msg == "" {
				msg = v.Error
			}
		}
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &apierr.Error{Service: service, Status: status, Message: msg}
	}
}
