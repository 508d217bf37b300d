// customers.go implements the customer tools.

package stripe

import (
	"context"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/stripe"
	"github.com/mark3labs/mcp-go/mcp"
)

var customerFields = []string{"email", "name", "description", "phone"}

func customerTools() []extension.MCPTool {
	customerID := mcp.WithString("customer_id", mcp.Required(), mcp.Description("Customer id (cus_...)"))
	fields := []mcp.ToolOption{
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("name", mcp.Description("Full name or business name")),
		mcp.WithString("description", mcp.Description("Internal description")),
		mcp.WithString("phone", mcp.Description("Phone number")),
		metadataArg,
	}

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_customer",
				append([]mcp.ToolOption{mcp.WithDescription("Create a customer.")}, fields...)...),
			Handler: handleCreateCustomer,
		},
		{
			Tool: mcp.NewTool("stripe_get_customer",
				mcp.WithDescription("Retrieve a customer."),
				customerID,
			),
			Handler: handleGetCustomer,
		},
		{
			Tool: mcp.NewTool("stripe_update_customer",
				append([]mcp.ToolOption{
					mcp.WithDescription("Update a customer. Only supplied fields change; an empty string clears a field."),
					customerID,
				}, fields...)...),
			Handler: handleUpdateCustomer,
		},
		{
			Tool: mcp.NewTool("stripe_delete_customer",
				mcp.WithDescription("Permanently delete a customer and cancel their active subscriptions. Irreversible."),
				customerID,
			),
			Handler: handleDeleteCustomer,
		},
		{
			Tool: mcp.NewTool("stripe_list_customers",
				mcp.WithDescription("List customers, newest first."),
				mcp.WithString("email", mcp.Description("Only customers with this exact email")),
				limitArg, cursorArg,
			),
			Handler: handleListCustomers,
		},
		{
			Tool: mcp.NewTool("stripe_search_customers",
				mcp.WithDescription("Search customers with Stripe's query language, e.g. email:'a@example.com' or metadata['plan']:'pro'. Results may lag writes by a minute."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
				limitArg,
				mcp.WithString("page", mcp.Description("Cursor from next_page")),
			),
			Handler: handleSearchCustomers,
		},
	}
}

// customerParams validates and collects the customer fields.
func customerParams(req mcp.CallToolRequest) (stripe.Params, error) {
	p := stripe.Params{}
	optional(p, req, customerFields...)
	if addr, ok := p["email"].(string); ok && addr != "" {
		if _, err := email.ValidateAddress(addr); err != nil {
			return nil, err
		}
	}
	withMetadata(p, req)
	return p, nil
}

func handleCreateCustomer(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := customerParams(req)
	if err != nil {
		return envelope.Invalid("%v", err), nil
	}
	return object(ctx, x, "customer", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Customers().Create(ctx, p)
	}), nil
}

func handleGetCustomer(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "customer_id", "cus_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "customer", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Customers().Get(ctx, id, nil)
	}), nil
}

func handleUpdateCustomer(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "customer_id", "cus_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p, err := customerParams(req)
	if err != nil {
		return envelope.Invalid("%v", err), nil
	}
	if len(p) == 0 {
		return envelope.Invalid("nothing to update: supply at least one of email, name, description, phone, metadata"), nil
	}
	return object(ctx, x, "customer", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Customers().Update(ctx, id, p)
	}), nil
}

func handleDeleteCustomer(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "customer_id", "cus_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "customer", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Customers().Delete(ctx, id)
	}), nil
}

func handleListCustomers(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if addr := params.String(req, "email", ""); addr != "" {
		p["email"] = addr
	}
	return list(ctx, x, "customers", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Customers().List(ctx, p)
	}), nil
}

func handleSearchCustomers(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := params.Require(req, "query")
	if err != nil {
		return envelope.Error(err), nil
	}
	limit := min(max(params.Int(req, "limit", defaultLimit), 1), maxLimit)
	page := params.String(req, "page", "")
	return list(ctx, x, "customers", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Customers().Search(ctx, query, limit, page)
	}), nil
}
