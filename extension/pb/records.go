// records.go implements the record tools.

package pb

import (
	"context"
	"net/http"
	"strings"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/diff"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxFullList bounds pb_get_full_list so one call cannot pull an entire
// large collection into the conversation.
const maxFullList = 1000

var (
	expandArg = mcp.WithString("expand", mcp.Description("Relations to expand, e.g. author,comments_via_post"))
	fieldsArg = mcp.WithString("fields", mcp.Description("Comma separated fields to return"))
	filterArg = mcp.WithString("filter", mcp.Description("PocketBase filter, e.g. status='published' && created>'2024-01-01'"))
	sortArg   = mcp.WithString("sort", mcp.Description("Sort expression, e.g. -created,title"))
)

func recordTools() []extension.MCPTool {
	collection := mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name or id"))
	id := mcp.WithString("id", mcp.Required(), mcp.Description("Record id"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("pb_list_records",
				mcp.WithDescription("List one page of records from a collection."),
				collection,
				mcp.WithNumber("page", mcp.Description("Page number, 1-based (default 1)")),
				mcp.WithNumber("per_page", mcp.Description("Page size (default 30, PocketBase caps at 1000)")),
				filterArg, sortArg, expandArg, fieldsArg,
				mcp.WithBoolean("skip_total", mcp.Description("Skip the total count query (faster for large collections)")),
			),
			Handler: handleListRecords,
		},
		{
			Tool: mcp.NewTool("pb_get_full_list",
				mcp.WithDescription("Fetch every record matching a filter, paging automatically. Stops at limit (default and maximum 1000)."),
				collection, filterArg, sortArg, expandArg, fieldsArg,
				mcp.WithNumber("limit", mcp.Description("Maximum records to return (default 1000)")),
			),
			Handler: handleFullList,
		},
		{
			Tool: mcp.NewTool("pb_get_first_record",
				mcp.WithDescription("Get the first record matching a filter. Fails with code 404 when nothing matches."),
				collection,
				mcp.WithString("filter", mcp.Required(), mcp.Description("PocketBase filter, e.g. email='a@example.com'")),
				sortArg, expandArg, fieldsArg,
			),
			Handler: handleFirstRecord,
		},
		{
			Tool: mcp.NewTool("pb_get_record",
				mcp.WithDescription("Get one record by id."),
				collection, id, expandArg, fieldsArg,
			),
			Handler: handleGetRecord,
		},
		{
			Tool: mcp.NewTool("pb_create_record",
				mcp.WithDescription("Create a record. For auth collections include password and passwordConfirm."),
				collection,
				mcp.WithObject("data", mcp.Required(), mcp.Description("Field values")),
				expandArg,
			),
			Handler: handleCreateRecord,
		},
		{
			Tool: mcp.NewTool("pb_update_record",
				mcp.WithDescription("Update fields of a record. Only the supplied fields change. With dry_run the current record is fetched and the changes are returned as a diff without writing."),
				collection, id,
				mcp.WithObject("data", mcp.Required(), mcp.Description("Fields to change")),
				mcp.WithBoolean("dry_run", mcp.Description("Show the changes without applying them")),
				expandArg,
			),
			Handler: handleUpdateRecord,
		},
		{
			Tool: mcp.NewTool("pb_delete_record",
				mcp.WithDescription("Delete a record. Irreversible."),
				collection, id,
			),
			Handler: handleDeleteRecord,
		},
		{
			Tool: mcp.NewTool("pb_batch",
				mcp.WithDescription("Run several create/update/upsert/delete requests in one transaction. Each request is {method, url, body}, e.g. {\"method\": \"POST\", \"url\": \"/api/collections/posts/records\", \"body\": {...}}. The batch API must be enabled in the instance settings."),
				mcp.WithArray("requests", mcp.Required(), mcp.Description("Sub-requests, executed in order")),
			),
			Handler: handleBatch,
		},
		{
			Tool: mcp.NewTool("pb_file_url",
				mcp.WithDescription("Build the URL of a file stored on a record. Makes no network call."),
				collection, id,
				mcp.WithString("filename", mcp.Required(), mcp.Description("File name as stored in the record field")),
				mcp.WithString("thumb", mcp.Description("Thumbnail size for images, e.g. 100x100")),
			),
			Handler: handleFileURL,
		},
	}
}

func handleListRecords(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	opts := listOptions(req)
	var list *pocketbase.List[pocketbase.Record]
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		list, err = c.ListRecords(ctx, coll, opts)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).Detail("count", len(list.Items))
	return envelope.OK(envelope.Fields{
		"page":       list.Page,
		"perPage":    list.PerPage,
		"totalItems": list.TotalItems,
		"totalPages": list.TotalPages,
		"items":      list.Items,
	}), nil
}

func handleFullList(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	limit := params.Int(req, "limit", maxFullList)
	if limit <= 0 || limit > maxFullList {
		limit = maxFullList
	}
	opts := listOptions(req)

	// One record past the limit tells a full result from a cut one.
	var items []pocketbase.Record
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		items, err = c.FullList(ctx, coll, opts, limit+1)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	truncated := len(items) > limit
	if truncated {
		items = items[:limit]
	}
	log.FromContext(ctx).Detail("count", len(items))
	return envelope.OK(envelope.Fields{
		"items":     items,
		"count":     len(items),
		"truncated": truncated,
	}), nil
}

func handleFirstRecord(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	filter, err := params.Require(req, "filter")
	if err != nil {
		return envelope.Error(err), nil
	}
	opts := listOptions(req)

	var rec pocketbase.Record
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		rec, err = c.FirstListItem(ctx, coll, filter, opts)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).ID(rec.ID())
	return envelope.Value("record", rec), nil
}

func handleGetRecord(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, id, err := recordArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	expand := params.String(req, "expand", "")
	fields := params.String(req, "fields", "")

	var rec pocketbase.Record
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		rec, err = c.GetRecord(ctx, coll, id, expand, fields)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("record", rec), nil
}

func handleCreateRecord(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := collectionArg(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	data := params.Object(req, "data")
	if data == nil {
		return envelope.Invalid("data must be an object of field values"), nil
	}
	expand := params.String(req, "expand", "")

	var rec pocketbase.Record
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		rec, err = c.CreateRecord(ctx, coll, data, expand)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).ID(rec.ID())
	return envelope.Value("record", rec), nil
}

func handleUpdateRecord(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, id, err := recordArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	data := params.Object(req, "data")
	if len(data) == 0 {
		return envelope.Invalid("data must contain at least one field"), nil
	}
	expand := params.String(req, "expand", "")

	if params.Bool(req, "dry_run", false) {
		log.FromContext(ctx).Detail("dry_run", true)
		return previewUpdate(ctx, x, coll, id, data)
	}

	var rec pocketbase.Record
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		rec, err = c.UpdateRecord(ctx, coll, id, data, expand)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("record", rec), nil
}

// previewUpdate fetches the current record and reports what data would
// change.
func previewUpdate(ctx context.Context, x extension.Context, coll, id string, data map[string]any) (*mcp.CallToolResult, error) {
	var before pocketbase.Record
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		before, err = c.GetRecord(ctx, coll, id, "", "")
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}

	changes := diff.Fields(before, data)
	label := coll + "/" + id
	d := diff.Records(before, diff.Apply(before, data), label+" (current)", label+" (updated)")
	return envelope.OK(envelope.Fields{
		"dry_run": true,
		"changes": changes,
		"diff":    d.Format(false),
		"changed": !d.Empty(),
	}), nil
}

func handleDeleteRecord(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, id, err := recordArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.DeleteRecord(ctx, coll, id)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"deleted": id, "collection": coll}), nil
}

var batchMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

func handleBatch(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := params.Objects(req, "requests")
	if err != nil {
		return envelope.Error(err), nil
	}
	if len(raw) == 0 {
		return envelope.Invalid("requests must contain at least one request"), nil
	}

	reqs := make([]pocketbase.BatchRequest, 0, len(raw))
	for i, r := range raw {
		method, _ := r["method"].(string)
		method = strings.ToUpper(method)
		if !batchMethods[method] {
			return envelope.Invalid("requests[%d].method must be POST, PATCH, PUT or DELETE", i), nil
		}
		u, _ := r["url"].(string)
		if !strings.HasPrefix(u, "/api/collections/") {
			return envelope.Invalid("requests[%d].url must start with /api/collections/", i), nil
		}
		body, _ := r["body"].(map[string]any)
		reqs = append(reqs, pocketbase.BatchRequest{Method: method, URL: u, Body: body})
	}
	log.FromContext(ctx).Detail("requests", len(reqs))

	var results []pocketbase.BatchResult
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		results, err = c.Batch(ctx, reqs)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("results", results), nil
}

func handleFileURL(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, id, err := recordArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	filename, err := params.Require(req, "filename")
	if err != nil {
		return envelope.Error(err), nil
	}
	thumb := params.String(req, "thumb", "")

	sessions := x.Service().Sessions()
	if err := sessions.Err(); err != nil {
		return envelope.Error(err), nil
	}
	c := pocketbase.New(sessions.Config().BaseURL)
	return envelope.Value("url", c.FileURL(coll, id, filename, thumb)), nil
}
