// cli.go implements the "pbmcp stripe" commands.

package stripe

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/spf13/cobra"
)

func (e *Extension) newStripeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "stripe",
		Short: "Query the configured Stripe account",
	}
	c.AddCommand(e.newBalanceCmd(), e.newCustomersCmd())
	return c
}

func (e *Extension) newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance",
		Long: `Show available and pending balance per currency.

Useful for checking that the configured secret key works and whether it
is a test or live key.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var bal stripe.Object
			var live bool
			err := run(c.Context(), e.ctx, func(ctx context.Context, sc *stripe.Client) error {
				var err error
				live = sc.Live()
				bal, err = sc.Balance(ctx)
				return err
			})
			log.Event("stripe:balance", "read").Service(stripe.Service).Detail("livemode", live).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(bal)
			}

			mode := "test"
			if live {
				mode = "live"
			}
			fmt.Fprintf(cmd.Out(), "mode: %s\n", mode)
			w := tabwriter.NewWriter(cmd.Out(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATE\tCURRENCY\tAMOUNT")
			for _, state := range []string{"available", "pending"} {
				entries, _ := bal[state].([]any)
				for _, en := range entries {
					m, _ := en.(map[string]any)
					fmt.Fprintf(w, "%s\t%v\t%v\n", state, m["currency"], m["amount"])
				}
			}
			return w.Flush()
		},
	}
}

func (e *Extension) newCustomersCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "customers",
		Short: "List recent customers",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			limit, _ := c.Flags().GetInt(extension.FlagLimit)
			limit = min(max(limit, 1), maxLimit)

			var l *stripe.List
			err := run(c.Context(), e.ctx, func(ctx context.Context, sc *stripe.Client) error {
				var err error
				l, err = sc.Customers().List(ctx, stripe.Params{"limit": limit})
				return err
			})
			log.Event("stripe:customers", "list").Service(stripe.Service).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(l.Data)
			}
			w := tabwriter.NewWriter(cmd.Out(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME")
			for _, cus := range l.Data {
				fmt.Fprintf(w, "%s\t%v\t%v\n", cus.ID(), orDash(cus["email"]), orDash(cus["name"]))
			}
			return w.Flush()
		},
	}
	c.Flags().Int(extension.FlagLimit, defaultLimit, "Number of customers (1-100)")
	return c
}

func orDash(v any) any {
	if v == nil || v == "" {
		return "-"
	}
	return v
}
