// subscriptions.go implements the subscription tools.

package stripe

import (
	"context"
	"fmt"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
)

var subscriptionStatuses = map[string]bool{
	"active": true, "past_due": true, "unpaid": true, "canceled": true, "incomplete": true,
	"incomplete_expired": true, "trialing": true, "paused": true, "all": true,
}

func subscriptionTools() []extension.MCPTool {
	subID := mcp.WithString("subscription_id", mcp.Required(), mcp.Description("Subscription id (sub_...)"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_subscription",
				mcp.WithDescription("Subscribe a customer to one or more recurring prices. Use price for a single item or items for several."),
				mcp.WithString("customer", mcp.Required(), mcp.Description("Customer id (cus_...)")),
				mcp.WithString("price", mcp.Description("Recurring price id (price_...)")),
				mcp.WithArray("items", mcp.Description("Items as [{price, quantity}]")),
				mcp.WithNumber("trial_period_days", mcp.Description("Free trial length in days")),
				mcp.WithString("payment_behavior",
					mcp.Description("How to handle a first payment that needs action (default default_incomplete)"),
					mcp.Enum("allow_incomplete", "default_incomplete", "error_if_incomplete"),
				),
				metadataArg,
			),
			Handler: handleCreateSubscription,
		},
		{
			Tool: mcp.NewTool("stripe_get_subscription",
				mcp.WithDescription("Retrieve a subscription."),
				subID,
			),
			Handler: handleGetSubscription,
		},
		{
			Tool: mcp.NewTool("stripe_update_subscription",
				mcp.WithDescription("Update a subscription: schedule cancellation at period end, or change metadata."),
				subID,
				mcp.WithBoolean("cancel_at_period_end", mcp.Description("Cancel when the current period ends")),
				mcp.WithString("proration_behavior",
					mcp.Description("Proration for changes"),
					mcp.Enum("create_prorations", "none", "always_invoice"),
				),
				metadataArg,
			),
			Handler: handleUpdateSubscription,
		},
		{
			Tool: mcp.NewTool("stripe_cancel_subscription",
				mcp.WithDescription("Cancel a subscription immediately. To cancel at period end use stripe_update_subscription with cancel_at_period_end."),
				subID,
			),
			Handler: handleCancelSubscription,
		},
		{
			Tool: mcp.NewTool("stripe_list_subscriptions",
				mcp.WithDescription("List subscriptions. By default canceled subscriptions are excluded; use status all to include them."),
				mcp.WithString("customer", mcp.Description("Only this customer's subscriptions (cus_...)")),
				mcp.WithString("price", mcp.Description("Only subscriptions to this price (price_...)")),
				mcp.WithString("status", mcp.Description("active, past_due, unpaid, canceled, incomplete, incomplete_expired, trialing, paused or all")),
				limitArg, cursorArg,
			),
			Handler: handleListSubscriptions,
		},
	}
}

// lineItems converts [{price, quantity}] into Stripe items. Quantity
// defaults to 1.
func lineItems(raw []map[string]any) ([]any, error) {
	out := make([]any, 0, len(raw))
	for i, it := range raw {
		price, _ := it["price"].(string)
		if err := validate.StripeID(price, "price_"); err != nil {
			return nil, err
		}
		qty := 1
		if q, ok := it["quantity"].(float64); ok {
			if q < 1 || q != float64(int(q)) {
				return nil, fmt.Errorf("%w: items[%d].quantity must be a positive whole number", apierr.ErrInvalidInput, i)
			}
			qty = int(q)
		}
		out = append(out, map[string]any{"price": price, "quantity": qty})
	}
	return out, nil
}

func handleCreateSubscription(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cus, err := idArg(ctx, req, "customer", "cus_")
	if err != nil {
		return envelope.Error(err), nil
	}

	raw, err := params.Objects(req, "items")
	if err != nil {
		return envelope.Error(err), nil
	}
	if price := params.String(req, "price", ""); price != "" {
		raw = append(raw, map[string]any{"price": price})
	}
	if len(raw) == 0 {
		return envelope.Invalid("supply price or items"), nil
	}
	items, err := lineItems(raw)
	if err != nil {
		return envelope.Error(err), nil
	}

	p := stripe.Params{
		"customer":         cus,
		"items":            items,
		"payment_behavior": params.String(req, "payment_behavior", "default_incomplete"),
	}
	if days := params.Int(req, "trial_period_days", 0); days > 0 {
		p["trial_period_days"] = days
	}
	withMetadata(p, req)
	log.FromContext(ctx).Detail("items", len(items))

	return object(ctx, x, "subscription", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Subscriptions().Create(ctx, p)
	}), nil
}

func handleGetSubscription(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "subscription_id", "sub_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "subscription", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Subscriptions().Get(ctx, id, nil)
	}), nil
}

func handleUpdateSubscription(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "subscription_id", "sub_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{}
	if params.Has(req, "cancel_at_period_end") {
		p["cancel_at_period_end"] = params.Bool(req, "cancel_at_period_end", false)
	}
	optional(p, req, "proration_behavior")
	withMetadata(p, req)
	if len(p) == 0 {
		return envelope.Invalid("nothing to update: supply cancel_at_period_end, proration_behavior or metadata"), nil
	}
	return object(ctx, x, "subscription", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Subscriptions().Update(ctx, id, p)
	}), nil
}

func handleCancelSubscription(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "subscription_id", "sub_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "subscription", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Subscriptions().Delete(ctx, id)
	}), nil
}

func handleListSubscriptions(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if cus := params.String(req, "customer", ""); cus != "" {
		if err := validate.StripeID(cus, "cus_"); err != nil {
			return envelope.Error(err), nil
		}
		p["customer"] = cus
	}
	if price := params.String(req, "price", ""); price != "" {
		if err := validate.StripeID(price, "price_"); err != nil {
			return envelope.Error(err), nil
		}
		p["price"] = price
	}
	if status := params.String(req, "status", ""); status != "" {
		if !subscriptionStatuses[status] {
			return envelope.Invalid("unknown subscription status %q", status), nil
		}
		p["status"] = status
	}
	return list(ctx, x, "subscriptions", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Subscriptions().List(ctx, p)
	}), nil
}
