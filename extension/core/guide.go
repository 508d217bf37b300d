// guide.go implements the "pbmcp guide" command and the guide MCP tool.
//
// Guides are embedded in the binary via the guide package. Terminal output
// gets glamour rendering; pipe/redirect gets raw markdown for machine
// consumption and LLM context loading.

package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/guide"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide [topic]",
		Short: "Show the pbmcp usage guide",
		Long: `Outputs the pbmcp guide for LLMs and humans.

  pbmcp guide                # main guide
  pbmcp guide pocketbase     # PocketBase tools
  pbmcp guide configuration  # config keys and environment variables`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			content, err := guide.Get(name)
			if err != nil {
				available, listErr := guide.List()
				if listErr != nil {
					return listErr
				}
				return cmd.PrintJSONError(fmt.Errorf("guide %q not found. Available: %s", name, strings.Join(available, ", ")))
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				rendered, err := glamour.Render(content, "dark")
				if err == nil {
					fmt.Fprint(cmd.Out(), rendered)
					return nil
				}
			}

			fmt.Fprint(cmd.Out(), content)
			return nil
		},
	}
}

func guideTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("guide",
			mcp.WithDescription("Get usage guidance for pbmcp tools. Call with no topic for the overview and the list of topics."),
			mcp.WithString("topic", mcp.Description("Guide topic (e.g. 'pocketbase', 'stripe', 'email', 'errors'); empty for the overview")),
		),
		Handler: handleGuide,
	}
}

func handleGuide(ctx context.Context, _ extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := params.String(req, "topic", "")
	log.FromContext(ctx).Target(topic)

	topics, err := guide.List()
	if err != nil {
		return nil, fmt.Errorf("listing guides: %w", err)
	}
	content, err := guide.Get(topic)
	if err != nil {
		return envelope.Invalid("unknown guide topic %q; available: %s", topic, strings.Join(topics, ", ")), nil
	}
	return envelope.OK(envelope.Fields{
		"topic":   topic,
		"content": content,
		"topics":  topics,
	}), nil
}
