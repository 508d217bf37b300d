// collections.go implements the collection tools.

package pb

import (
	"context"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
)

func collectionTools() []extension.MCPTool {
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("pb_health",
				mcp.WithDescription("Check that the PocketBase instance is reachable and healthy."),
			),
			Handler: handleHealth,
		},
		{
			Tool: mcp.NewTool("pb_list_collections",
				mcp.WithDescription("List collections with their fields and rules. Requires admin credentials."),
				mcp.WithNumber("page", mcp.Description("Page number, 1-based (default 1)")),
				mcp.WithNumber("per_page", mcp.Description("Page size (default 30)")),
				mcp.WithString("filter", mcp.Description("PocketBase filter, e.g. type='auth'")),
				mcp.WithString("sort", mcp.Description("Sort expression, e.g. -created,name")),
			),
			Handler: handleListCollections,
		},
		{
			Tool: mcp.NewTool("pb_get_collection",
				mcp.WithDescription("Get one collection definition by name or id."),
				mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name or id")),
			),
			Handler: handleGetCollection,
		},
		{
			Tool: mcp.NewTool("pb_create_collection",
				mcp.WithDescription("Create a collection. The definition follows the PocketBase collection schema: name, type (base|auth|view), fields, rules."),
				mcp.WithObject("definition", mcp.Required(), mcp.Description("Collection definition, must include name")),
			),
			Handler: handleCreateCollection,
		},
		{
			Tool: mcp.NewTool("pb_update_collection",
				mcp.WithDescription("Update a collection definition. Only the supplied keys change."),
				mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name or id")),
				mcp.WithObject("definition", mcp.Required(), mcp.Description("Keys to change")),
			),
			Handler: handleUpdateCollection,
		},
		{
			Tool: mcp.NewTool("pb_delete_collection",
				mcp.WithDescription("Delete a collection and all its records. Irreversible."),
				mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name or id")),
			),
			Handler: handleDeleteCollection,
		},
		{
			Tool: mcp.NewTool("pb_truncate_collection",
				mcp.WithDescription("Delete every record of a collection, keeping the collection. Irreversible."),
				mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name or id")),
			),
			Handler: handleTruncateCollection,
		},
	}
}

func handleHealth(ctx context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var h *pocketbase.Health
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		h, err = c.Health(ctx)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{
		"healthy": h.Code == 200,
		"code":    h.Code,
		"message": h.Message,
		"url":     x.Service().Sessions().Config().BaseURL,
	}), nil
}

func handleListCollections(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := listOptions(req)
	var list *pocketbase.List[pocketbase.Collection]
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		list, err = c.ListCollections(ctx, opts)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).Detail("count", len(list.Items))
	return envelope.Value("collections", list), nil
}

func handleGetCollection(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	var coll pocketbase.Collection
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		coll, err = c.GetCollection(ctx, name)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("collection", coll), nil
}

func handleCreateCollection(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def := params.Object(req, "definition")
	name, _ := def["name"].(string)
	if err := validate.Collection(name); err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).Target(name)

	var coll pocketbase.Collection
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		coll, err = c.CreateCollection(ctx, def)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("collection", coll), nil
}

func handleUpdateCollection(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	def := params.Object(req, "definition")
	if len(def) == 0 {
		return envelope.Invalid("definition must contain at least one key"), nil
	}

	var coll pocketbase.Collection
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		coll, err = c.UpdateCollection(ctx, name, def)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("collection", coll), nil
}

func handleDeleteCollection(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.DeleteCollection(ctx, name)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"deleted": name}), nil
}

func handleTruncateCollection(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.TruncateCollection(ctx, name)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"truncated": name}), nil
}

// collectionArg validates the "collection" argument and sets it as the
// audit target.
func collectionArg(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	name := params.String(req, "collection", "")
	if err := validate.Collection(name); err != nil {
		return "", err
	}
	log.FromContext(ctx).Target(name)
	return name, nil
}

// recordArgs validates "collection" and "id".
func recordArgs(ctx context.Context, req mcp.CallToolRequest) (string, string, error) {
	coll, err := collectionArg(ctx, req)
	if err != nil {
		return "", "", err
	}
	id := params.String(req, "id", "")
	if err := validate.RecordID(id); err != nil {
		return "", "", err
	}
	log.FromContext(ctx).ID(id)
	return coll, id, nil
}

func listOptions(req mcp.CallToolRequest) pocketbase.ListOptions {
	return pocketbase.ListOptions{
		Page:      params.Int(req, "page", 1),
		PerPage:   params.Int(req, "per_page", 30),
		Sort:      params.String(req, "sort", ""),
		Filter:    params.String(req, "filter", ""),
		Expand:    params.String(req, "expand", ""),
		Fields:    params.String(req, "fields", ""),
		SkipTotal: params.Bool(req, "skip_total", false),
	}
}
