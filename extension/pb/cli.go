// cli.go implements the "pbmcp pb" commands for checking a PocketBase
// instance from a terminal. They run through the same executor as the
// tools, so a successful "pb health" or "pb collections" proves the
// configuration the server will use.

package pb

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/spf13/cobra"
)

func (e *Extension) newPBCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "pb",
		Short: "Query the configured PocketBase instance",
	}
	c.AddCommand(e.newHealthCmd(), e.newCollectionsCmd(), e.newGetCmd(), e.newListCmd())
	return c
}

func (e *Extension) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that PocketBase is reachable",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var h *pocketbase.Health
			err := run(c.Context(), e.ctx, func(ctx context.Context, pc *pocketbase.Client) error {
				var err error
				h, err = pc.Health(ctx)
				return err
			})
			log.Event("pocketbase:health", "read").Service(pocketbase.Service).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(h)
			}
			fmt.Fprintf(cmd.Out(), "%s: %s (%d)\n", e.ctx.Service().Sessions().Config().BaseURL, h.Message, h.Code)
			return nil
		},
	}
}

func (e *Extension) newCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var list *pocketbase.List[pocketbase.Collection]
			err := run(c.Context(), e.ctx, func(ctx context.Context, pc *pocketbase.Client) error {
				var err error
				list, err = pc.ListCollections(ctx, pocketbase.ListOptions{PerPage: 200, Sort: "name"})
				return err
			})
			log.Event("pocketbase:collections", "list").Service(pocketbase.Service).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(list.Items)
			}
			w := tabwriter.NewWriter(cmd.Out(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tID")
			for _, coll := range list.Items {
				typ, _ := coll["type"].(string)
				id, _ := coll["id"].(string)
				fmt.Fprintf(w, "%s\t%s\t%s\n", coll.Name(), typ, id)
			}
			return w.Flush()
		},
	}
}

func (e *Extension) newGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			coll, id := args[0], args[1]
			if err := validate.Collection(coll); err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := validate.RecordID(id); err != nil {
				return cmd.PrintJSONError(err)
			}
			expand, _ := c.Flags().GetString(extension.FlagExpand)

			var rec pocketbase.Record
			err := run(c.Context(), e.ctx, func(ctx context.Context, pc *pocketbase.Client) error {
				var err error
				rec, err = pc.GetRecord(ctx, coll, id, expand, "")
				return err
			})
			log.Event("pocketbase:get", "read").Service(pocketbase.Service).Target(coll).ID(id).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			return printRecords(rec)
		},
	}
	c.Flags().String(extension.FlagExpand, "", "Relations to expand")
	return c
}

func (e *Extension) newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			coll := args[0]
			if err := validate.Collection(coll); err != nil {
				return cmd.PrintJSONError(err)
			}
			opts := pocketbase.ListOptions{}
			opts.Filter, _ = c.Flags().GetString(extension.FlagFilter)
			opts.Sort, _ = c.Flags().GetString(extension.FlagSort)
			opts.Expand, _ = c.Flags().GetString(extension.FlagExpand)
			opts.Page, _ = c.Flags().GetInt(extension.FlagPage)
			opts.PerPage, _ = c.Flags().GetInt(extension.FlagPerPage)

			var list *pocketbase.List[pocketbase.Record]
			err := run(c.Context(), e.ctx, func(ctx context.Context, pc *pocketbase.Client) error {
				var err error
				list, err = pc.ListRecords(ctx, coll, opts)
				return err
			})
			log.Event("pocketbase:list", "list").Service(pocketbase.Service).Target(coll).Write(err)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(list)
			}
			if err := printRecords(list.Items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.Out(), "page %d/%d, %d records\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}
	c.Flags().String(extension.FlagFilter, "", "PocketBase filter expression")
	c.Flags().String(extension.FlagSort, "", "Sort expression, e.g. -created")
	c.Flags().String(extension.FlagExpand, "", "Relations to expand")
	c.Flags().Int(extension.FlagPage, 1, "Page number")
	c.Flags().Int(extension.FlagPerPage, 30, "Page size")
	return c
}

func printRecords(v any) error {
	if cmd.JSON() {
		return cmd.PrintJSON(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Out(), string(data))
	return nil
}
