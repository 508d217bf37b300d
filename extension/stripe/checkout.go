// checkout.go implements the checkout session, payment link and balance
// tools.

package stripe

import (
	"context"
	"net/url"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
)

var checkoutModes = map[string]bool{"payment": true, "subscription": true, "setup": true}

func checkoutTools() []extension.MCPTool {
	items := mcp.WithArray("line_items", mcp.Required(), mcp.Description("Items as [{price, quantity}]"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_checkout_session",
				mcp.WithDescription("Create a hosted checkout page and return its url. Use mode subscription for recurring prices."),
				mcp.WithString("mode",
					mcp.Description("Checkout mode (default payment)"),
					mcp.Enum("payment", "subscription", "setup"),
				),
				mcp.WithArray("line_items", mcp.Description("Items as [{price, quantity}]; required unless mode is setup")),
				mcp.WithString("success_url", mcp.Required(), mcp.Description("Where to send the customer after paying")),
				mcp.WithString("cancel_url", mcp.Description("Where to send the customer if they go back")),
				mcp.WithString("customer", mcp.Description("Existing customer id (cus_...)")),
				mcp.WithString("customer_email", mcp.Description("Prefill the email for a new customer")),
				metadataArg,
			),
			Handler: handleCreateCheckoutSession,
		},
		{
			Tool: mcp.NewTool("stripe_get_checkout_session",
				mcp.WithDescription("Retrieve a checkout session, including its payment status."),
				mcp.WithString("session_id", mcp.Required(), mcp.Description("Checkout session id (cs_...)")),
			),
			Handler: handleGetCheckoutSession,
		},
		{
			Tool: mcp.NewTool("stripe_create_payment_link",
				mcp.WithDescription("Create a reusable payment link for one or more prices and return its url."),
				items,
				metadataArg,
			),
			Handler: handleCreatePaymentLink,
		},
		{
			Tool: mcp.NewTool("stripe_get_balance",
				mcp.WithDescription("Get the account balance: available and pending amounts per currency."),
			),
			Handler: handleGetBalance,
		},
	}
}

// absoluteURL checks that s is an absolute http(s) URL.
func absoluteURL(name, s string) *mcp.CallToolResult {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return envelope.Invalid("%s must be an absolute http(s) URL", name)
	}
	return nil
}

func handleCreateCheckoutSession(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := params.String(req, "mode", "payment")
	if !checkoutModes[mode] {
		return envelope.Invalid("mode must be payment, subscription or setup"), nil
	}
	success, err := params.Require(req, "success_url")
	if err != nil {
		return envelope.Error(err), nil
	}
	if res := absoluteURL("success_url", success); res != nil {
		return res, nil
	}
	p := stripe.Params{"mode": mode, "success_url": success}

	if cancel := params.String(req, "cancel_url", ""); cancel != "" {
		if res := absoluteURL("cancel_url", cancel); res != nil {
			return res, nil
		}
		p["cancel_url"] = cancel
	}

	if mode != "setup" {
		raw, err := params.Objects(req, "line_items")
		if err != nil {
			return envelope.Error(err), nil
		}
		if len(raw) == 0 {
			return envelope.Invalid("line_items must contain at least one item"), nil
		}
		li, err := lineItems(raw)
		if err != nil {
			return envelope.Error(err), nil
		}
		p["line_items"] = li
	}

	if cus := params.String(req, "customer", ""); cus != "" {
		if err := validate.StripeID(cus, "cus_"); err != nil {
			return envelope.Error(err), nil
		}
		p["customer"] = cus
	} else {
		optional(p, req, "customer_email")
	}
	withMetadata(p, req)

	return object(ctx, x, "checkout_session", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.CheckoutSessions().Create(ctx, p)
	}), nil
}

func handleGetCheckoutSession(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "session_id", "cs_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "checkout_session", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.CheckoutSessions().Get(ctx, id, nil)
	}), nil
}

func handleCreatePaymentLink(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := params.Objects(req, "line_items")
	if err != nil {
		return envelope.Error(err), nil
	}
	if len(raw) == 0 {
		return envelope.Invalid("line_items must contain at least one item"), nil
	}
	li, err := lineItems(raw)
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{"line_items": li}
	withMetadata(p, req)

	return object(ctx, x, "payment_link", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.PaymentLinks().Create(ctx, p)
	}), nil
}

func handleGetBalance(ctx context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return object(ctx, x, "balance", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Balance(ctx)
	}), nil
}
