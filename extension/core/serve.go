// serve.go implements the "pbmcp serve" command.
//
// Unlike other commands that run and exit, serve blocks handling MCP
// requests until the client disconnects (stdio) or the process is
// interrupted (HTTP).

package core

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/mcp"
	"github.com/spf13/cobra"
)

func (e *Extension) newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server",
		Long: `Start an MCP (Model Context Protocol) server for LLM integration.

Serves stdio by default, which is what desktop MCP clients launch.
Use --http to serve Streamable HTTP instead:

  pbmcp serve                 # stdio
  pbmcp serve --http :8080    # Streamable HTTP on port 8080

The server starts even when PocketBase, Stripe or email are not
configured; tools for a missing backend explain what to set.`,
		Args: cobra.NoArgs,
		RunE: e.runServe,
	}
	c.Flags().String(extension.FlagHTTP, "", "Serve Streamable HTTP on this address instead of stdio")
	return c
}

func (e *Extension) runServe(c *cobra.Command, _ []string) error {
	addr, _ := c.Flags().GetString(extension.FlagHTTP)

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := "stdio"
	if addr != "" {
		transport = "http"
	}
	l := log.Event("core:serve", "serve").Detail("transport", transport)
	err := mcp.Serve(ctx, e.ctx, extension.Tools(), mcp.Options{HTTPAddr: addr})
	l.Write(err)
	return err
}
