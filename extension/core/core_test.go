package core

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, cfg *config.Config) extension.Context {
	t.Helper()
	svc := service.New(cfg, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(svc.Close)
	return extension.NewContext(svc, cfg)
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

func TestGuideTool(t *testing.T) {
	x := newContext(t, &config.Config{})

	body, isErr := call(t, x, "guide", nil)
	require.False(t, isErr)
	assert.Contains(t, body["content"], "pbmcp Guide")
	assert.Contains(t, body["topics"], "stripe")
	assert.NotContains(t, body["topics"], "guide")

	body, isErr = call(t, x, "guide", map[string]any{"topic": "errors"})
	require.False(t, isErr)
	assert.Equal(t, "errors", body["topic"])

	body, isErr = call(t, x, "guide", map[string]any{"topic": "nonexistent"})
	assert.True(t, isErr)
	assert.Equal(t, "validation_error", body["code"])
	assert.Contains(t, body["error"], "pocketbase")
}

func TestServerStatus(t *testing.T) {
	x := newContext(t, &config.Config{
		PocketBase: config.PocketBase{URL: "https://pb.example.com", AdminEmail: "admin@example.com", AdminPassword: "hunter22"},
		Stripe:     config.Stripe{SecretKey: "sk_live_abc"},
	})

	body, isErr := call(t, x, "server_status", nil)
	require.False(t, isErr)
	st := body["status"].(map[string]any)

	pb := st["pocketbase"].(map[string]any)
	assert.Equal(t, true, pb["configured"])
	assert.Equal(t, "https://pb.example.com", pb["url"])
	assert.Equal(t, true, pb["admin_credentials"])
	assert.Equal(t, false, pb["authenticated"])

	assert.Equal(t, "live", st["stripe"].(map[string]any)["mode"])
	assert.Equal(t, false, st["email"].(map[string]any)["configured"])

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter22")
	assert.NotContains(t, string(raw), "sk_live_abc")
}

func TestSessionReset(t *testing.T) {
	x := newContext(t, &config.Config{PocketBase: config.PocketBase{URL: "https://pb.example.com"}})

	body, isErr := call(t, x, "session_reset", nil)
	require.False(t, isErr)
	assert.Equal(t, true, body["reset"])
	assert.False(t, x.Service().Sessions().Status().Initialized)
}

func TestStandaloneCommands(t *testing.T) {
	e := &Extension{}
	names := map[string]bool{}
	for _, c := range e.Commands() {
		names[c.Name()] = true
	}
	for _, s := range e.StandaloneCommands() {
		assert.True(t, names[s], "standalone command %s is not registered", s)
	}
}
