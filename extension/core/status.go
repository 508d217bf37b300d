// status.go implements the server_status and session_reset tools and the
// "pbmcp status" command.

package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

func serverStatusTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("server_status",
			mcp.WithDescription("Report which backends are configured, the PocketBase session state (authenticated, age), recent activity and hibernation state. Makes no network calls."),
		),
		Handler: func(_ context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return envelope.Value("status", x.Service().Status()), nil
		},
	}
}

func sessionResetTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("session_reset",
			mcp.WithDescription("Discard the PocketBase session. The next PocketBase call creates a new client and authenticates again. Use after changing admin credentials or when calls keep failing with 401/403."),
		),
		Handler: func(ctx context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			log.FromContext(ctx).Service("pocketbase")
			x.Service().Sessions().Reset()
			return envelope.OK(envelope.Fields{
				"reset":   true,
				"message": "session cleared; the next PocketBase call authenticates again",
			}), nil
		},
	}
}

func (e *Extension) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured backends",
		Long: `Show which backends are configured, without contacting them.

Use "pbmcp pb health" to check that PocketBase is reachable.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st := e.ctx.Service().Status()
			log.Event("core:status", "status").Write(nil)
			if cmd.JSON() {
				return cmd.PrintJSON(st)
			}
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Out(), string(data))
			return nil
		},
	}
}
