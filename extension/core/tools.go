// tools.go implements the "pbmcp tools" command, which lists every MCP tool
// the server would register.

package core

import (
	"fmt"
	"text/tabwriter"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/spf13/cobra"
)

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tools := extension.Tools()
			list := make([]toolInfo, 0, len(tools))
			for _, t := range tools {
				list = append(list, toolInfo{Name: t.Tool.Name, Description: t.Tool.Description})
			}
			if cmd.JSON() {
				return cmd.PrintJSON(list)
			}
			w := tabwriter.NewWriter(cmd.Out(), 0, 4, 2, ' ', 0)
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	}
}
