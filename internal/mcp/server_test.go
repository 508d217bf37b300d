package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, cfg *config.Config, opts ...service.Option) extension.Context {
	t.Helper()
	svc := service.New(cfg, opts...)
	t.Cleanup(svc.Close)
	return extension.NewContext(svc, cfg)
}

func tool(name string, h extension.MCPHandler) extension.MCPTool {
	return extension.MCPTool{Tool: mcp.NewTool(name), Handler: h}
}

func TestWrap(t *testing.T) {
	clk := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return clk }
	extCtx := newContext(t, &config.Config{}, service.WithClock(now))

	tests := []struct {
		name    string
		handler extension.MCPHandler
		isError bool
		code    string
	}{
		{
			name: "success",
			handler: func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return envelope.Value("ok", true), nil
			},
		},
		{
			name: "go error becomes envelope",
			handler: func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, &apierr.Error{Service: "pocketbase", Status: 404}
			},
			isError: true,
			code:    "404",
		},
		{
			name: "panic becomes envelope",
			handler: func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				panic("boom")
			},
			isError: true,
			code:    "unknown_error",
		},
		{
			name: "nil result",
			handler: func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, nil
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clk = clk.Add(time.Minute)
			h := Wrap(extCtx, tool("pb_test", tc.handler))

			res, err := h(context.Background(), mcp.CallToolRequest{})
			require.NoError(t, err, "no Go error crosses the boundary")
			require.NotNil(t, res)
			assert.Equal(t, tc.isError, res.IsError)
			if tc.isError {
				f, ok := envelope.Parse(res)
				require.True(t, ok)
				assert.Equal(t, tc.code, f.Code)
				assert.NotEmpty(t, f.Hint)
			}
			assert.True(t, clk.Equal(extCtx.Service().Tracker().Last()), "every call touches the tracker")
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct{ tool, service, action string }{
		{"pb_get_record", "pocketbase", "get"},
		{"stripe_create_customer", "stripe", "create"},
		{"email_send_template", "email", "send"},
		{"server_status", "", "status"},
		{"guide", "", "guide"},
	}
	for _, tc := range tests {
		svc, action := describe(tc.tool)
		assert.Equal(t, tc.service, svc, tc.tool)
		assert.Equal(t, tc.action, action, tc.tool)
	}
}

func TestNewServer(t *testing.T) {
	extCtx := newContext(t, &config.Config{})
	tools := []extension.MCPTool{tool("pb_test", func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return envelope.OK(nil), nil
	})}
	assert.NotNil(t, NewServer(extCtx, tools, Options{}))
	assert.NotNil(t, NewServer(extCtx, tools, Options{HTTPAddr: "127.0.0.1:0"}))
}

func TestParseURI(t *testing.T) {
	parts, err := parseURI("pocketbase://records/posts/abc123", recordPrefix, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "abc123"}, parts)

	parts, err = parseURI("pocketbase://collections/my%20posts", collectionPrefix, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"my posts"}, parts)

	for _, uri := range []string{
		"pocketbase://records/posts",
		"pocketbase://records/posts/abc/extra",
		"pocketbase://records//abc",
		"stripe://customers/x",
	} {
		_, err := parseURI(uri, recordPrefix, 2)
		assert.ErrorIs(t, err, ErrInvalidURI, uri)
	}
}

func TestResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/collections/posts":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "pbc_1", "name": "posts", "type": "base"})
		case "/api/collections/posts/records/abc123":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc123", "title": "Hello"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": 404, "message": "The requested resource wasn't found."})
		}
	}))
	defer srv.Close()

	r := &resources{extCtx: newContext(t, &config.Config{PocketBase: config.PocketBase{URL: srv.URL}})}

	var req mcp.ReadResourceRequest
	req.Params.URI = "pocketbase://collections/posts"
	out, err := r.readCollection(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out, 1)
	text := out[0].(mcp.TextResourceContents)
	assert.Equal(t, jsonMIME, text.MIMEType)
	assert.Contains(t, text.Text, `"name": "posts"`)

	req.Params.URI = "pocketbase://records/posts/abc123"
	out, err = r.readRecord(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out[0].(mcp.TextResourceContents).Text, "Hello")

	req.Params.URI = "pocketbase://records/posts/missing"
	_, err = r.readRecord(context.Background(), req)
	assert.Equal(t, 404, apierr.Status(err))

	req.Params.URI = "pocketbase://records/posts"
	_, err = r.readRecord(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidURI))
}
