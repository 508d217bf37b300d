// payments.go implements the payment intent tools.

package stripe

import (
	"context"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
)

func paymentIntentTools() []extension.MCPTool {
	intentID := mcp.WithString("payment_intent_id", mcp.Required(), mcp.Description("Payment intent id (pi_...)"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_payment_intent",
				mcp.WithDescription("Create a payment intent. amount is an integer in the smallest currency unit: 2000 with currency usd is $20.00."),
				mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount in the smallest currency unit")),
				mcp.WithString("currency", mcp.Required(), mcp.Description("Three-letter ISO currency code, e.g. usd")),
				mcp.WithString("customer", mcp.Description("Customer id (cus_...)")),
				mcp.WithString("description", mcp.Description("Description shown in the dashboard")),
				mcp.WithString("receipt_email", mcp.Description("Send a receipt to this address on success")),
				mcp.WithString("payment_method", mcp.Description("Payment method id (pm_...)")),
				mcp.WithBoolean("confirm", mcp.Description("Confirm immediately (requires payment_method)")),
				metadataArg,
			),
			Handler: handleCreatePaymentIntent,
		},
		{
			Tool: mcp.NewTool("stripe_get_payment_intent",
				mcp.WithDescription("Retrieve a payment intent."),
				intentID,
			),
			Handler: handleGetPaymentIntent,
		},
		{
			Tool: mcp.NewTool("stripe_confirm_payment_intent",
				mcp.WithDescription("Confirm a payment intent, attempting the charge."),
				intentID,
				mcp.WithString("payment_method", mcp.Description("Payment method id (pm_...)")),
				mcp.WithString("return_url", mcp.Description("Where to send the customer after a redirect-based method")),
			),
			Handler: handleConfirmPaymentIntent,
		},
		{
			Tool: mcp.NewTool("stripe_cancel_payment_intent",
				mcp.WithDescription("Cancel a payment intent that has not succeeded."),
				intentID,
				mcp.WithString("cancellation_reason",
					mcp.Description("Reason for cancelling"),
					mcp.Enum("duplicate", "fraudulent", "requested_by_customer", "abandoned"),
				),
			),
			Handler: handleCancelPaymentIntent,
		},
		{
			Tool: mcp.NewTool("stripe_list_payment_intents",
				mcp.WithDescription("List payment intents, newest first."),
				mcp.WithString("customer", mcp.Description("Only intents for this customer (cus_...)")),
				limitArg, cursorArg,
			),
			Handler: handleListPaymentIntents,
		},
	}
}

func handleCreatePaymentIntent(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount, err := amountArg(req, "amount")
	if err != nil {
		return envelope.Error(err), nil
	}
	currency, err := validate.Currency(params.String(req, "currency", ""))
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{"amount": amount, "currency": currency}
	if cus := params.String(req, "customer", ""); cus != "" {
		if err := validate.StripeID(cus, "cus_"); err != nil {
			return envelope.Error(err), nil
		}
		p["customer"] = cus
	}
	optional(p, req, "description", "receipt_email", "payment_method")
	if params.Bool(req, "confirm", false) {
		if p["payment_method"] == nil {
			return envelope.Invalid("confirm requires payment_method"), nil
		}
		p["confirm"] = true
	}
	if p["payment_method"] == nil {
		p["automatic_payment_methods"] = map[string]any{"enabled": true}
	}
	withMetadata(p, req)
	log.FromContext(ctx).Detail("amount", amount).Detail("currency", currency)

	return object(ctx, x, "payment_intent", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.PaymentIntents().Create(ctx, p)
	}), nil
}

func handleGetPaymentIntent(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "payment_intent_id", "pi_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "payment_intent", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.PaymentIntents().Get(ctx, id, nil)
	}), nil
}

func handleConfirmPaymentIntent(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "payment_intent_id", "pi_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{}
	optional(p, req, "payment_method", "return_url")
	return object(ctx, x, "payment_intent", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.PaymentIntents().Action(ctx, id, "confirm", p)
	}), nil
}

func handleCancelPaymentIntent(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "payment_intent_id", "pi_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{}
	optional(p, req, "cancellation_reason")
	return object(ctx, x, "payment_intent", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.PaymentIntents().Action(ctx, id, "cancel", p)
	}), nil
}

func handleListPaymentIntents(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if cus := params.String(req, "customer", ""); cus != "" {
		if err := validate.StripeID(cus, "cus_"); err != nil {
			return envelope.Error(err), nil
		}
		p["customer"] = cus
	}
	return list(ctx, x, "payment_intents", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.PaymentIntents().List(ctx, p)
	}), nil
}
