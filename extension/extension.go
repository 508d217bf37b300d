// Package extension provides the plugin architecture for pbmcp. Extensions
// encapsulate one backend's functionality (CLI commands, MCP tools) and
// register at init time, so adding a backend never touches core code.
package extension

import (
	"github.com/spf13/cobra"
)

// Extension defines the contract for pbmcp extensions.
type Extension interface {
	// Name returns a unique identifier for this extension.
	Name() string

	// Commands returns CLI commands to register with the root command.
	Commands() []*cobra.Command

	// MCPTools returns MCP tools to register with the server.
	MCPTools() []MCPTool
}

// Initializable extensions receive the shared context before any of their
// commands run.
type Initializable interface {
	Extension
	Init(ctx Context) error
}

// Standalone is an optional interface for extensions with commands that
// must work without a loaded configuration. Commands returned by
// StandaloneCommands() do not trigger service construction in
// PersistentPreRunE.
//
// Use cases:
// 1. Commands that repair a broken config file (config)
// 2. Commands that manage their own service lifecycle (serve)
// 3. Utility commands that never talk to a backend (guide, version)
type Standalone interface {
	StandaloneCommands() []string
}
