// cli.go implements the "pbmcp email" commands.

package email

import (
	"fmt"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/version"
	"github.com/spf13/cobra"
)

func (e *Extension) newEmailCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "email",
		Short: "Check the configured email provider",
	}
	c.AddCommand(e.newTestCmd())
	return c
}

func (e *Extension) newTestCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "test",
		Short: "Send a test message",
		Long: `Send a short test message through the configured provider.

The message uses the configured sender (email.from), so a successful test
proves the same settings the email_send tool will use.`,
		Example: `  pbmcp email test --to you@example.com`,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			to, _ := c.Flags().GetString(extension.FlagTo)
			subject, _ := c.Flags().GetString(extension.FlagSubject)
			m := email.Message{
				To:       []string{to},
				Subject:  subject,
				Markdown: fmt.Sprintf("This is a test message from **pbmcp %s**.\n\nIf you can read it, email delivery works.", version.Short()),
			}

			ctx := log.WithBuilder(c.Context(), log.Event("email:test", "send"))
			rcpt, err := send(ctx, e.ctx, m)
			log.FromContext(ctx).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(rcpt)
			}
			fmt.Fprintf(cmd.Out(), "sent via %s to %s", rcpt.Provider, to)
			if rcpt.ID != "" {
				fmt.Fprintf(cmd.Out(), " (id %s)", rcpt.ID)
			}
			fmt.Fprintln(cmd.Out())
			return nil
		},
	}
	c.Flags().String(extension.FlagTo, "", "Recipient address")
	c.Flags().String(extension.FlagSubject, "pbmcp test message", "Subject line")
	_ = c.MarkFlagRequired(extension.FlagTo)
	return c
}
