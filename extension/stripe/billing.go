// billing.go implements the refund and invoice tools.

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

var invoiceStatuses = map[string]bool{"draft": true, "open": true, "paid": true, "uncollectible": true, "void": true}

func billingTools() []extension.MCPTool {
	invoiceID := mcp.WithString("invoice_id", mcp.Required(), mcp.Description("Invoice id (in_...)"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_refund",
				mcp.WithDescription("Refund a payment in full or in part. Supply payment_intent or charge. Omit amount for a full refund."),
				mcp.WithString("payment_intent", mcp.Description("Payment intent id (pi_...)")),
				mcp.WithString("charge", mcp.Description("Charge id (ch_... or py_...)")),
				mcp.WithNumber("amount", mcp.Description("Amount to refund in the smallest currency unit (default: everything refundable)")),
				mcp.WithString("reason",
					mcp.Description("Refund reason"),
					mcp.Enum("duplicate", "fraudulent", "requested_by_customer"),
				),
				metadataArg,
			),
			Handler: handleCreateRefund,
		},
		{
			Tool: mcp.NewTool("stripe_get_invoice",
				mcp.WithDescription("Retrieve an invoice."),
				invoiceID,
			),
			Handler: handleGetInvoice,
		},
		{
			Tool: mcp.NewTool("stripe_list_invoices",
				mcp.WithDescription("List invoices, newest first."),
				mcp.WithString("customer", mcp.Description("Only this customer's invoices (cus_...)")),
				mcp.WithString("subscription", mcp.Description("Only invoices of this subscription (sub_...)")),
				mcp.WithString("status", mcp.Description("draft, open, paid, uncollectible or void")),
				limitArg, cursorArg,
			),
			Handler: handleListInvoices,
		},
		{
			Tool: mcp.NewTool("stripe_finalize_invoice",
				mcp.WithDescription("Finalize a draft invoice so it can be paid. A finalized invoice can no longer be edited."),
				invoiceID,
				mcp.WithBoolean("auto_advance", mcp.Description("Let Stripe attempt payment automatically")),
			),
			Handler: handleFinalizeInvoice,
		},
	}
}

func handleCreateRefund(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := stripe.Params{}
	pi := params.String(req, "payment_intent", "")
	ch := params.String(req, "charge", "")
	switch {
	case pi != "" && ch != "":
		return envelope.Invalid("supply payment_intent or charge, not both"), nil
	case pi != "":
		id, err := idArg(ctx, req, "payment_intent", "pi_")
		if err != nil {
			return envelope.Error(err), nil
		}
		p["payment_intent"] = id
	case ch != "":
		id, err := idArg(ctx, req, "charge", "ch_", "py_")
		if err != nil {
			return envelope.Error(err), nil
		}
		p["charge"] = id
	default:
		return envelope.Invalid("supply payment_intent or charge"), nil
	}

	if params.Has(req, "amount") {
		amount, err := amountArg(req, "amount")
		if err != nil {
			return envelope.Error(err), nil
		}
		if amount == 0 {
			return envelope.Invalid("amount must be positive; omit it for a full refund"), nil
		}
		p["amount"] = amount
		log.FromContext(ctx).Detail("amount", amount)
	}
	optional(p, req, "reason")
	withMetadata(p, req)

	return object(ctx, x, "refund", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Refunds().Create(ctx, p)
	}), nil
}

func handleGetInvoice(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "invoice_id", "in_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "invoice", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Invoices().Get(ctx, id, nil)
	}), nil
}

func handleListInvoices(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if cus := params.String(req, "customer", ""); cus != "" {
		if err := validate.StripeID(cus, "cus_"); err != nil {
			return envelope.Error(err), nil
		}
		p["customer"] = cus
	}
	if sub := params.String(req, "subscription", ""); sub != "" {
		if err := validate.StripeID(sub, "sub_"); err != nil {
			return envelope.Error(err), nil
		}
		p["subscription"] = sub
	}
	if status := params.String(req, "status", ""); status != "" {
		if !invoiceStatuses[status] {
			return envelope.Invalid("unknown invoice status %q", status), nil
		}
		p["status"] = status
	}
	return list(ctx, x, "invoices", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Invoices().List(ctx, p)
	}), nil
}

func handleFinalizeInvoice(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "invoice_id", "in_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{}
	if params.Has(req, "auto_advance") {
		p["auto_advance"] = params.Bool(req, "auto_advance", true)
	}
	return object(ctx, x, "invoice", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Invoices().Action(ctx, id, "finalize", p)
	}), nil
}
