// Package core provides the core extension for pbmcp.
// It registers commands: serve, config, guide, version, tools, status,
// and the server_status, guide and session_reset MCP tools.
package core

import (
	"github.com/jpl-au/pbmcp/extension"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the core extension.
type Extension struct {
	ctx extension.Context
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
	_ extension.Standalone    = (*Extension)(nil)
)

// Name returns "core".
func (e *Extension) Name() string { return "core" }

// Init keeps the shared context for serve and status.
func (e *Extension) Init(ctx extension.Context) error {
	e.ctx = ctx
	return nil
}

// Commands returns the core CLI commands.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newServeCmd(),
		newConfigCmd(),
		newGuideCmd(),
		newVersionCmd(),
		newToolsCmd(),
		e.newStatusCmd(),
	}
}

// MCPTools returns the server-level tools.
func (e *Extension) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{
		serverStatusTool(),
		guideTool(),
		sessionResetTool(),
	}
}

// StandaloneCommands returns commands that never need the service.
// config: must work with a broken config file so it can be repaired.
// guide, version, tools: read only embedded data.
func (e *Extension) StandaloneCommands() []string {
	return []string{"config", "guide", "version", "tools"}
}
