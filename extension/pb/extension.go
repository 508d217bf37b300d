// Package pb provides the PocketBase extension for pbmcp.
// It registers the pb_* MCP tools (collections, records, user auth and
// admin endpoints) and the "pbmcp pb" commands.
//
// Every backend call runs through the service's PocketBase executor, so
// tools share one authenticated session and retry once after an auth
// failure. Handlers validate identifiers before any request is sent.
package pb

import (
	"context"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/jpl-au/pbmcp/internal/session"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the PocketBase extension.
type Extension struct {
	ctx extension.Context
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "pocketbase".
func (e *Extension) Name() string { return "pocketbase" }

// Init keeps the shared context for the CLI commands.
func (e *Extension) Init(ctx extension.Context) error {
	e.ctx = ctx
	return nil
}

// Commands returns the "pb" command group.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{e.newPBCmd()}
}

// MCPTools returns the PocketBase tools.
func (e *Extension) MCPTools() []extension.MCPTool {
	var tools []extension.MCPTool
	tools = append(tools, collectionTools()...)
	tools = append(tools, recordTools()...)
	tools = append(tools, authTools()...)
	tools = append(tools, adminTools()...)
	return tools
}

// run executes op with the shared client and records the attempt count on
// the audit entry. Failed attempts are recorded by the tool wrapper from
// the error envelope.
func run(ctx context.Context, x extension.Context, op func(context.Context, *pocketbase.Client) error) error {
	res, err := x.Service().PocketBase().Execute(ctx, func(ctx context.Context, s session.Session) error {
		return op(ctx, s.Client)
	})
	if err == nil {
		log.FromContext(ctx).Attempts(res.Attempts)
	}
	return err
}
