package stripe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/executor"
	"github.com/jpl-au/pbmcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is one request seen by the fake API.
type recorded struct {
	Method string
	Path   string
	Form   url.Values
	Key    string
}

type fakeStripe struct {
	mu       sync.Mutex
	requests []recorded
	failNext int // answer this many requests with 401 first
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	rec := recorded{Method: r.Method, Path: r.URL.Path, Form: r.Form, Key: r.Header.Get("Idempotency-Key")}
	f.requests = append(f.requests, rec)
	fail := f.failNext > 0
	if fail {
		f.failNext--
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"type": "invalid_request_error", "message": "Invalid API Key provided"}})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/customers":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "cus_1", "object": "customer", "email": r.PostForm.Get("email")})
	case r.Method == http.MethodGet && r.URL.Path == "/customers":
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "has_more": true,
			"data": []any{map[string]any{"id": "cus_2"}, map[string]any{"id": "cus_1"}}})
	case r.Method == http.MethodPost && r.URL.Path == "/payment_intents":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pi_1", "object": "payment_intent", "status": "requires_payment_method"})
	case r.Method == http.MethodPost && r.URL.Path == "/subscriptions":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "sub_1", "object": "subscription"})
	case r.Method == http.MethodPost && r.URL.Path == "/refunds":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "re_1", "object": "refund"})
	case r.Method == http.MethodGet && r.URL.Path == "/balance":
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "balance",
			"available": []any{map[string]any{"amount": 1200, "currency": "usd"}}})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"type": "invalid_request_error", "code": "resource_missing", "message": "No such object"}})
	}
}

func (f *fakeStripe) seen() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newContext(t *testing.T, key string) (extension.Context, *fakeStripe) {
	t.Helper()
	f := &fakeStripe{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Stripe: config.Stripe{SecretKey: key}}
	svc := service.New(cfg,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithStripeBaseURL(srv.URL),
		service.WithExecutorOptions(executor.WithSleep(func(context.Context, time.Duration) error { return nil })))
	t.Cleanup(svc.Close)
	return extension.NewContext(svc, cfg), f
}

func call(t *testing.T, x extension.Context, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	for _, tool := range (&Extension{}).MCPTools() {
		if tool.Tool.Name != name {
			continue
		}
		var req mcp.CallToolRequest
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := tool.Handler(context.Background(), x, req)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &body))
		return body, res.IsError
	}
	t.Fatalf("no tool %s", name)
	return nil, false
}

func TestToolCatalogue(t *testing.T) {
	names := map[string]bool{}
	for _, tool := range (&Extension{}).MCPTools() {
		assert.True(t, strings.HasPrefix(tool.Tool.Name, "stripe_"), tool.Tool.Name)
		assert.False(t, names[tool.Tool.Name], "duplicate %s", tool.Tool.Name)
		names[tool.Tool.Name] = true
	}
	assert.Len(t, names, 30)
}

func TestCreateCustomer(t *testing.T) {
	x, f := newContext(t, "sk_test_123")

	body, isErr := call(t, x, "stripe_create_customer", map[string]any{
		"email":    "a@example.com",
		"name":     "Ada",
		"metadata": map[string]any{"plan": "pro", "seats": 3.0},
	})
	require.False(t, isErr, body)
	assert.Equal(t, "cus_1", body["customer"].(map[string]any)["id"])

	reqs := f.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "pro", reqs[0].Form.Get("metadata[plan]"))
	assert.Equal(t, "3", reqs[0].Form.Get("metadata[seats]"))
	assert.NotEmpty(t, reqs[0].Key)

	_, isErr = call(t, x, "stripe_create_customer", map[string]any{"email": "not-an-address"})
	assert.True(t, isErr)
	assert.Len(t, f.seen(), 1, "invalid email is rejected before any request")
}

func TestRetryReusesIdempotencyKey(t *testing.T) {
	x, f := newContext(t, "sk_test_123")
	f.failNext = 1

	body, isErr := call(t, x, "stripe_create_payment_intent", map[string]any{"amount": 2000.0, "currency": "USD"})
	require.False(t, isErr, body)

	reqs := f.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Key, reqs[1].Key, "a retry must not create a second payment")
	assert.Equal(t, "2000", reqs[1].Form.Get("amount"))
	assert.Equal(t, "usd", reqs[1].Form.Get("currency"))
	assert.Equal(t, "true", reqs[1].Form.Get("automatic_payment_methods[enabled]"))

	_, isErr = call(t, x, "stripe_create_payment_intent", map[string]any{"amount": 2000.0, "currency": "usd"})
	require.False(t, isErr)
	reqs = f.seen()
	assert.NotEqual(t, reqs[0].Key, reqs[2].Key, "each call gets its own key")
}

func TestValidation(t *testing.T) {
	x, f := newContext(t, "sk_test_123")

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"stripe_create_payment_intent", map[string]any{"amount": 19.99, "currency": "usd"}},
		{"stripe_create_payment_intent", map[string]any{"amount": 100.0, "currency": "dollars"}},
		{"stripe_create_payment_intent", map[string]any{"currency": "usd"}},
		{"stripe_get_customer", map[string]any{"customer_id": "pi_123"}},
		{"stripe_create_refund", map[string]any{}},
		{"stripe_create_refund", map[string]any{"payment_intent": "pi_1", "charge": "ch_1"}},
		{"stripe_create_subscription", map[string]any{"customer": "cus_1"}},
		{"stripe_create_price", map[string]any{"product": "prod_1", "unit_amount": 500.0, "currency": "usd", "recurring_interval": "fortnight"}},
		{"stripe_create_checkout_session", map[string]any{"line_items": []any{map[string]any{"price": "price_1"}}, "success_url": "/thanks"}},
		{"stripe_update_customer", map[string]any{"customer_id": "cus_1"}},
	}
	for _, tc := range cases {
		body, isErr := call(t, x, tc.tool, tc.args)
		assert.True(t, isErr, "%s %v", tc.tool, tc.args)
		assert.Equal(t, "validation_error", body["code"], "%s %v", tc.tool, tc.args)
	}
	assert.Empty(t, f.seen(), "validation failures never reach Stripe")
}

func TestSubscriptionItems(t *testing.T) {
	x, f := newContext(t, "sk_test_123")

	_, isErr := call(t, x, "stripe_create_subscription", map[string]any{
		"customer": "cus_1",
		"items":    []any{map[string]any{"price": "price_a", "quantity": 2.0}},
		"price":    "price_b",
	})
	require.False(t, isErr)

	form := f.seen()[0].Form
	assert.Equal(t, "price_a", form.Get("items[0][price]"))
	assert.Equal(t, "2", form.Get("items[0][quantity]"))
	assert.Equal(t, "price_b", form.Get("items[1][price]"))
	assert.Equal(t, "1", form.Get("items[1][quantity]"))
	assert.Equal(t, "default_incomplete", form.Get("payment_behavior"))
}

func TestListPagination(t *testing.T) {
	x, f := newContext(t, "sk_test_123")

	body, isErr := call(t, x, "stripe_list_customers", map[string]any{"limit": 500.0})
	require.False(t, isErr)
	assert.Equal(t, true, body["has_more"])
	assert.Equal(t, "cus_1", body["next_starting_after"])
	assert.Len(t, body["customers"], 2)
	assert.Equal(t, "100", f.seen()[0].Form.Get("limit"), "limit is capped")
}

func TestRefundAndBalance(t *testing.T) {
	x, f := newContext(t, "sk_test_123")

	_, isErr := call(t, x, "stripe_create_refund", map[string]any{"payment_intent": "pi_1", "amount": 500.0, "reason": "duplicate"})
	require.False(t, isErr)
	form := f.seen()[0].Form
	assert.Equal(t, "pi_1", form.Get("payment_intent"))
	assert.Equal(t, "500", form.Get("amount"))

	body, isErr := call(t, x, "stripe_get_balance", nil)
	require.False(t, isErr)
	assert.Equal(t, "balance", body["balance"].(map[string]any)["object"])
}

func TestRemoteError(t *testing.T) {
	x, _ := newContext(t, "sk_test_123")

	body, isErr := call(t, x, "stripe_get_invoice", map[string]any{"invoice_id": "in_missing"})
	assert.True(t, isErr)
	assert.Equal(t, "404", body["code"])
	assert.EqualValues(t, 1, body["attempts"], "404 is not retried")
}

func TestUnconfigured(t *testing.T) {
	x, f := newContext(t, "")

	body, isErr := call(t, x, "stripe_get_balance", nil)
	assert.True(t, isErr)
	assert.Equal(t, "unavailable", body["code"])
	assert.Empty(t, f.seen())
}
