// mcp.go defines types for MCP tool registration by extensions.
//
// Separated from extension.go to isolate MCP-specific concerns. Not all
// extensions need MCP tools; some only provide CLI commands.
//
// MCPTool pairs the tool definition with its handler. The handler receives
// both the Go context (for cancellation) and the extension Context (for
// service access).

package extension

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCPTool pairs an MCP tool definition with its handler.
type MCPTool struct {
	Tool    mcp.Tool
	Handler MCPHandler
}

// MCPHandler processes MCP tool requests. Handlers report failures as error
// envelopes; a returned Go error is converted to one by the server.
type MCPHandler func(ctx context.Context, extCtx Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Tools returns the tools of every registered extension, sorted by name.
// Panics on a duplicate tool name, like Register.
func Tools() []MCPTool {
	seen := make(map[string]bool)
	var tools []MCPTool
	for _, ext := range All() {
		for _, t := range ext.MCPTools() {
			if seen[t.Tool.Name] {
				panic("mcp tool already registered: " + t.Tool.Name)
			}
			seen[t.Tool.Name] = true
			tools = append(tools, t)
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Tool.Name < tools[j].Tool.Name })
	return tools
}
