// Package pocketbase is a thin REST client for the PocketBase API.
//
// The client is the "handle" owned by the session holder: creating one is
// local and cheap, authentication is a separate network call. All failures
// surface as *apierr.Error so the executor can classify them.
package pocketbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/httpx"
)

// Service is the name used in errors and audit entries.
const Service = "pocketbase"

// SuperusersCollection is the auth collection for administrators.
const SuperusersCollection = "_superusers"

// Record is a PocketBase record. Field sets are schema-defined, so records
// stay untyped.
type Record map[string]any

// ID returns the record id, or "" when absent.
func (r Record) ID() string {
	s, _ := r["id"].(string)
	return s
}

// List is the paginated list envelope returned by list endpoints.
type List[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

// ListOptions are the common list query parameters.
type ListOptions struct {
	Page      int
	PerPage   int
	Sort      string
	Filter    string
	Expand    string
	Fields    string
	SkipTotal bool
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Expand != "" {
		q.Set("expand", o.Expand)
	}
	if o.Fields != "" {
		q.Set("fields", o.Fields)
	}
	if o.SkipTotal {
		q.Set("skipTotal", "1")
	}
	return q
}

// Client talks to one PocketBase instance.
type Client struct {
	rest *httpx.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for baseURL. No network I/O happens here.
func New(baseURL string, opts ...httpx.Option) *Client {
	c := &Client{}
	opts = append([]httpx.Option{
		httpx.WithErrorDecoder(decodeError),
		httpx.WithAuth(c.authorize),
	}, opts...)
	c.rest = httpx.New(Service, baseURL, opts...)
	return c
}

// BaseURL returns the instance root URL.
func (c *Client) BaseURL() string { return c.rest.BaseURL() }

// Token returns the current auth token ("" when unauthenticated).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsAuthenticated reports whether the client holds a token.
func (c *Client) IsAuthenticated() bool { return c.Token() != "" }

// ClearAuth drops the token; later requests run as a public client.
func (c *Client) ClearAuth() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Close releases pooled connections.
func (c *Client) Close() { c.rest.CloseIdleConnections() }

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// authorize adds the token. PocketBase expects the raw token, not a
// "Bearer" prefix.
func (c *Client) authorize(r *http.Request) {
	if t := c.Token(); t != "" {
		r.Header.Set("Authorization", t)
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	req := httpx.Request{Method: method, Path: path, Query: q}
	if body != nil {
		req.Body = httpx.JSON(body)
	}
	_, err := c.rest.Do(ctx, req, out)
	return err
}

// decodeError parses {"code":400,"message":"...","data":{...}}.
func decodeError(status int, body []byte) *apierr.Error {
	var v struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	_ = json.Unmarshal(body, &v)
	if v.Message == "" {
		v.Message = http.StatusText(status)
	}
	e := &apierr.Error{Service: Service, Status: status, Message: v.Message}
	if len(v.Data) > 0 {
		e.Data = v.Data
	}
	return e
}

func collectionPath(collection string, parts ...string) string {
	p := "/api/collections/" + url.PathEscape(collection)
	for _, s := range parts {
		p += "/" + url.PathEscape(s)
	}
	return p
}
