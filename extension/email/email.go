// Package email provides the email extension for pbmcp.
// It registers the email_* MCP tools and the "pbmcp email" commands.
//
// Every message is prepared (defaults applied, addresses checked, Markdown
// rendered) before the provider is contacted. Sends are never retried.
package email

import (
	"context"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the email extension.
type Extension struct {
	ctx extension.Context
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "email".
func (e *Extension) Name() string { return "email" }

// Init keeps the shared context for the CLI commands.
func (e *Extension) Init(ctx extension.Context) error {
	e.ctx = ctx
	return nil
}

// Commands returns the "email" command group.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{e.newEmailCmd()}
}

// MCPTools returns the email tools.
func (e *Extension) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{
		sendTool(),
		sendTemplateTool(),
		listTemplatesTool(),
		validateAddressTool(),
		statusTool(),
	}
}

// send prepares m and hands it to the configured provider.
func send(ctx context.Context, x extension.Context, m email.Message) (email.Receipt, error) {
	if err := m.Prepare(x.Service().EmailDefaults()); err != nil {
		return email.Receipt{}, err
	}
	b := log.FromContext(ctx)
	b.Target(m.To[0]).Detail("recipients", len(m.Recipients()))

	var rcpt email.Receipt
	res, err := x.Service().Email().Execute(ctx, func(ctx context.Context, s email.Sender) error {
		b.Service(s.Name())
		var err error
		rcpt, err = s.Send(ctx, m)
		return err
	})
	if err != nil {
		return email.Receipt{}, err
	}
	b.Attempts(res.Attempts)
	if rcpt.ID != "" {
		b.ID(rcpt.ID)
	}
	return rcpt, nil
}
