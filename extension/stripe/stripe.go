// Package stripe provides the Stripe extension for pbmcp.
// It registers the stripe_* MCP tools and the "pbmcp stripe" commands.
//
// Each tool call gets one idempotency key, attached to the context before
// the executor runs. A retried POST therefore reaches Stripe with the same
// key and cannot create a second charge, customer or refund.
//
// Amounts are integers in the smallest currency unit (cents for USD), as
// the Stripe API expects. Tools reject fractional amounts rather than
// rounding them.
package stripe

import (
	"context"
	"fmt"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the Stripe extension.
type Extension struct {
	ctx extension.Context
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "stripe".
func (e *Extension) Name() string { return "stripe" }

// Init keeps the shared context for the CLI commands.
func (e *Extension) Init(ctx extension.Context) error {
	e.ctx = ctx
	return nil
}

// Commands returns the "stripe" command group.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{e.newStripeCmd()}
}

// MCPTools returns the Stripe tools.
func (e *Extension) MCPTools() []extension.MCPTool {
	var tools []extension.MCPTool
	tools = append(tools, customerTools()...)
	tools = append(tools, paymentIntentTools()...)
	tools = append(tools, catalogTools()...)
	tools = append(tools, subscriptionTools()...)
	tools = append(tools, billingTools()...)
	tools = append(tools, checkoutTools()...)
	return tools
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// run executes op under a fresh idempotency key and records the attempt
// count and mode on the audit entry.
func run(ctx context.Context, x extension.Context, op func(context.Context, *stripe.Client) error) error {
	ctx = stripe.NewIdempotencyKey(ctx)
	res, err := x.Service().Stripe().Execute(ctx, func(ctx context.Context, c *stripe.Client) error {
		log.FromContext(ctx).Detail("livemode", c.Live())
		return op(ctx, c)
	})
	if err == nil {
		log.FromContext(ctx).Attempts(res.Attempts)
	}
	return err
}

// object runs op and returns its result under key.
func object(ctx context.Context, x extension.Context, key string, op func(context.Context, *stripe.Client) (stripe.Object, error)) *mcp.CallToolResult {
	var o stripe.Object
	err := run(ctx, x, func(ctx context.Context, c *stripe.Client) error {
		var err error
		o, err = op(ctx, c)
		return err
	})
	if err != nil {
		return envelope.Error(err)
	}
	if id := o.ID(); id != "" {
		log.FromContext(ctx).ID(id)
	}
	return envelope.Value(key, o)
}

// list runs op and returns the page with its pagination cursor.
func list(ctx context.Context, x extension.Context, key string, op func(context.Context, *stripe.Client) (*stripe.List, error)) *mcp.CallToolResult {
	var l *stripe.List
	err := run(ctx, x, func(ctx context.Context, c *stripe.Client) error {
		var err error
		l, err = op(ctx, c)
		return err
	})
	if err != nil {
		return envelope.Error(err)
	}
	log.FromContext(ctx).Detail("count", len(l.Data))
	data := l.Data
	if data == nil {
		data = []stripe.Object{}
	}
	fields := envelope.Fields{key: data, "has_more": l.HasMore}
	if l.HasMore && len(l.Data) > 0 {
		fields["next_starting_after"] = l.Data[len(l.Data)-1].ID()
	}
	if l.NextPage != "" {
		fields["next_page"] = l.NextPage
	}
	return envelope.OK(fields)
}

// idArg validates a Stripe id argument against the allowed prefixes.
func idArg(ctx context.Context, req mcp.CallToolRequest, name string, prefixes ...string) (string, error) {
	id := params.String(req, name, "")
	if err := validate.StripeID(id, prefixes...); err != nil {
		return "", err
	}
	log.FromContext(ctx).ID(id)
	return id, nil
}

// optional copies the supplied string arguments into p. An argument sent
// as "" is copied too, which Stripe treats as clearing the field.
func optional(p stripe.Params, req mcp.CallToolRequest, names ...string) {
	for _, n := range names {
		if params.Has(req, n) {
			p[n] = params.String(req, n, "")
		}
	}
}

// withMetadata adds the metadata argument when present.
func withMetadata(p stripe.Params, req mcp.CallToolRequest) {
	if m := params.Metadata(req, "metadata"); m != nil {
		p["metadata"] = m
	}
}

// pageParams builds list parameters: limit (1-100, default 10) and the
// starting_after cursor.
func pageParams(req mcp.CallToolRequest) stripe.Params {
	limit := params.Int(req, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	p := stripe.Params{"limit": limit}
	if s := params.String(req, "starting_after", ""); s != "" {
		p["starting_after"] = s
	}
	return p
}

// amountArg validates a required amount in the smallest currency unit.
func amountArg(req mcp.CallToolRequest, name string) (int64, error) {
	v, ok := params.Float(req, name)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", validate.ErrInvalidAmount, name)
	}
	return validate.Amount(v)
}

var (
	limitArg    = mcp.WithNumber("limit", mcp.Description("Page size, 1-100 (default 10)"))
	cursorArg   = mcp.WithString("starting_after", mcp.Description("Object id to continue after (from next_starting_after)"))
	metadataArg = mcp.WithObject("metadata", mcp.Description("Key-value metadata; values are stored as strings"))
)
