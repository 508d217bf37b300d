// catalog.go implements the product and price tools.

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

func catalogTools() []extension.MCPTool {
	productID := mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id (prod_...)"))
	active := mcp.WithBoolean("active", mcp.Description("Whether the product can be sold"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("stripe_create_product",
				mcp.WithDescription("Create a product. Create prices for it with stripe_create_price."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Product name shown to customers")),
				mcp.WithString("description", mcp.Description("Product description")),
				active, metadataArg,
			),
			Handler: handleCreateProduct,
		},
		{
			Tool: mcp.NewTool("stripe_get_product",
				mcp.WithDescription("Retrieve a product."),
				productID,
			),
			Handler: handleGetProduct,
		},
		{
			Tool: mcp.NewTool("stripe_update_product",
				mcp.WithDescription("Update a product. Only supplied fields change."),
				productID,
				mcp.WithString("name", mcp.Description("Product name")),
				mcp.WithString("description", mcp.Description("Product description")),
				active, metadataArg,
			),
			Handler: handleUpdateProduct,
		},
		{
			Tool: mcp.NewTool("stripe_list_products",
				mcp.WithDescription("List products, newest first."),
				mcp.WithBoolean("active", mcp.Description("Only active (true) or archived (false) products")),
				limitArg, cursorArg,
			),
			Handler: handleListProducts,
		},
		{
			Tool: mcp.NewTool("stripe_create_price",
				mcp.WithDescription("Create a price for a product. Omit recurring_interval for a one-time price."),
				mcp.WithString("product", mcp.Required(), mcp.Description("Product id (prod_...)")),
				mcp.WithNumber("unit_amount", mcp.Required(), mcp.Description("Amount in the smallest currency unit")),
				mcp.WithString("currency", mcp.Required(), mcp.Description("Three-letter ISO currency code")),
				mcp.WithString("recurring_interval",
					mcp.Description("Billing interval for subscriptions"),
					mcp.Enum("day", "week", "month", "year"),
				),
				mcp.WithNumber("recurring_interval_count", mcp.Description("Intervals between billings (default 1)")),
				mcp.WithString("nickname", mcp.Description("Internal name")),
				metadataArg,
			),
			Handler: handleCreatePrice,
		},
		{
			Tool: mcp.NewTool("stripe_list_prices",
				mcp.WithDescription("List prices, optionally for one product."),
				mcp.WithString("product", mcp.Description("Only prices of this product (prod_...)")),
				mcp.WithBoolean("active", mcp.Description("Only active (true) or inactive (false) prices")),
				limitArg, cursorArg,
			),
			Handler: handleListPrices,
		},
	}
}

var intervals = map[string]bool{"day": true, "week": true, "month": true, "year": true}

func handleCreateProduct(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := params.Require(req, "name")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{"name": name}
	optional(p, req, "description")
	if params.Has(req, "active") {
		p["active"] = params.Bool(req, "active", true)
	}
	withMetadata(p, req)
	log.FromContext(ctx).Target(name)

	return object(ctx, x, "product", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Products().Create(ctx, p)
	}), nil
}

func handleGetProduct(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "product_id", "prod_")
	if err != nil {
		return envelope.Error(err), nil
	}
	return object(ctx, x, "product", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Products().Get(ctx, id, nil)
	}), nil
}

func handleUpdateProduct(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(ctx, req, "product_id", "prod_")
	if err != nil {
		return envelope.Error(err), nil
	}
	p := stripe.Params{}
	optional(p, req, "name", "description")
	if params.Has(req, "active") {
		p["active"] = params.Bool(req, "active", true)
	}
	withMetadata(p, req)
	if len(p) == 0 {
		return envelope.Invalid("nothing to update: supply at least one of name, description, active, metadata"), nil
	}
	return object(ctx, x, "product", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Products().Update(ctx, id, p)
	}), nil
}

func handleListProducts(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if params.Has(req, "active") {
		p["active"] = params.Bool(req, "active", true)
	}
	return list(ctx, x, "products", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Products().List(ctx, p)
	}), nil
}

func handleCreatePrice(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	product, err := idArg(ctx, req, "product", "prod_")
	if err != nil {
		return envelope.Error(err), nil
	}
	amount, err := amountArg(req, "unit_amount")
	if err != nil {
		return envelope.Error(err), nil
	}
	currency, err := validate.Currency(params.String(req, "currency", ""))
	if err != nil {
		return envelope.Error(err), nil
	}

	p := stripe.Params{"product": product, "unit_amount": amount, "currency": currency}
	if interval := params.String(req, "recurring_interval", ""); interval != "" {
		if !intervals[interval] {
			return envelope.Invalid("recurring_interval must be day, week, month or year"), nil
		}
		recurring := map[string]any{"interval": interval}
		if n := params.Int(req, "recurring_interval_count", 0); n > 0 {
			recurring["interval_count"] = n
		}
		p["recurring"] = recurring
	}
	optional(p, req, "nickname")
	withMetadata(p, req)

	return object(ctx, x, "price", func(ctx context.Context, c *stripe.Client) (stripe.Object, error) {
		return c.Prices().Create(ctx, p)
	}), nil
}

func handleListPrices(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := pageParams(req)
	if prod := params.String(req, "product", ""); prod != "" {
		if err := validate.StripeID(prod, "prod_"); err != nil {
			return envelope.Error(err), nil
		}
		p["product"] = prod
	}
	if params.Has(req, "active") {
		p["active"] = params.Bool(req, "active", true)
	}
	return list(ctx, x, "prices", func(ctx context.Context, c *stripe.Client) (*stripe.List, error) {
		return c.Prices().List(ctx, p)
	}), nil
}
