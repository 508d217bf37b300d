// Package mcp implements the Model Context Protocol server that exposes the
// extensions' tools and the PocketBase resources to LLM clients.
//
// The server starts even when no backend is configured. Tools that need a
// missing backend answer with an "unavailable" envelope explaining which
// setting to provide, rather than the server refusing to start.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Name is advertised to clients during capability negotiation.
const Name = "pbmcp"

// shutdownTimeout bounds how long open HTTP streams may take to drain.
const shutdownTimeout = 5 * time.Second

// Options select the transport.
type Options struct {
	// HTTPAddr serves Streamable HTTP on this address. Empty serves stdio.
	HTTPAddr string
}

// NewServer builds the MCP server with tools and the PocketBase resources.
//
// With HTTP, client sessions are counted as open streams so hibernation
// never tears down under a connected client. Stdio registers one session
// for the life of the process, so it is not counted.
func NewServer(extCtx extension.Context, tools []extension.MCPTool, opts Options) *server.MCPServer {
	sopts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithRecovery(),
	}
	if opts.HTTPAddr != "" {
		tracker := extCtx.Service().Tracker()
		hooks := &server.Hooks{}
		hooks.AddOnRegisterSession(func(_ context.Context, s server.ClientSession) {
			tracker.Open()
			slog.Debug("client session opened", "session", s.SessionID())
		})
		hooks.AddOnUnregisterSession(func(_ context.Context, s server.ClientSession) {
			tracker.Close()
			slog.Debug("client session closed", "session", s.SessionID())
		})
		sopts = append(sopts, server.WithHooks(hooks))
	}

	s := server.NewMCPServer(Name, version.Short(), sopts...)
	registerResources(s, &resources{extCtx: extCtx})
	for _, t := range tools {
		s.AddTool(t.Tool, Wrap(extCtx, t))
	}
	return s
}

// Serve runs the server until ctx is done or the transport stops. The
// hibernation controller runs alongside it.
func Serve(ctx context.Context, extCtx extension.Context, tools []extension.MCPTool, opts Options) error {
	s := NewServer(extCtx, tools, opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go extCtx.Service().Run(ctx)

	if opts.HTTPAddr == "" {
		slog.Info("pbmcp MCP server ready", "version", version.Short(), "transport", "stdio", "tools", len(tools))
		err := server.ServeStdio(s)
		if errors.Is(err, context.Canceled) {
			slog.Info("server stopped")
			return nil
		}
		return err
	}

	httpSrv := server.NewStreamableHTTPServer(s)
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Start(opts.HTTPAddr) }()
	slog.Info("pbmcp MCP server ready", "version", version.Short(), "transport", "http", "addr", opts.HTTPAddr, "tools", len(tools))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		slog.Info("server stopping")
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// Wrap adapts an extension tool to the server. Every call touches the
// activity tracker, writes one audit entry and logs at debug level. Go
// errors and panics from the handler become error envelopes.
func Wrap(extCtx extension.Context, t extension.MCPTool) server.ToolHandlerFunc {
	name := t.Tool.Name
	service, action := describe(name)

	return func(ctx context.Context, req mcp.CallToolRequest) (res *mcp.CallToolResult, _ error) {
		extCtx.Service().Tracker().Touch()
		start := time.Now()
		b := log.Event("mcp:"+name, action).Service(service)

		defer func() {
			if r := recover(); r != nil {
				slog.Error("tool panicked", "tool", name, "panic", r)
				res = envelope.Error(fmt.Errorf("internal error in %s: %v", name, r))
			}
			if f, failed := envelope.Parse(res); failed {
				if f.Attempts > 0 {
					b.Attempts(f.Attempts)
				}
				b.Fail(f.Code, f.Error)
				slog.Debug("tool failed", "tool", name, "code", f.Code, "duration", time.Since(start))
				return
			}
			b.Write(nil)
			slog.Debug("tool ok", "tool", name, "duration", time.Since(start))
		}()

		res, err := t.Handler(log.WithBuilder(ctx, b), extCtx, req)
		if err != nil {
			return envelope.Error(err), nil
		}
		if res == nil {
			return envelope.OK(nil), nil
		}
		return res, nil
	}
}

// describe derives the audit service and action from a tool name:
// "pb_get_record" is ("pocketbase", "get"), "server_status" is ("", "status").
func describe(tool string) (service, action string) {
	parts := strings.Split(tool, "_")
	services := map[string]string{"pb": "pocketbase", "stripe": "stripe", "email": "email"}
	if svc, ok := services[parts[0]]; ok && len(parts) > 1 {
		return svc, parts[1]
	}
	return "", parts[len(parts)-1]
}
