// admin.go implements the admin tools: logs, settings and backups.

package pb

import (
	"context"
	"regexp"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/mark3labs/mcp-go/mcp"
)

// PocketBase accepts backup names of [a-z0-9_-] ending in .zip.
var backupName = regexp.MustCompile(`^[a-z0-9_-]+\.zip$`)

func adminTools() []extension.MCPTool {
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("pb_list_logs",
				mcp.WithDescription("List request logs. Requires admin credentials and logging enabled in settings."),
				mcp.WithNumber("page", mcp.Description("Page number, 1-based (default 1)")),
				mcp.WithNumber("per_page", mcp.Description("Page size (default 30)")),
				mcp.WithString("filter", mcp.Description("PocketBase filter, e.g. level>0 or data.status>=400")),
				mcp.WithString("sort", mcp.Description("Sort expression (default -created)")),
			),
			Handler: handleListLogs,
		},
		{
			Tool: mcp.NewTool("pb_get_settings",
				mcp.WithDescription("Get the instance settings. Secrets are masked by PocketBase."),
			),
			Handler: handleGetSettings,
		},
		{
			Tool: mcp.NewTool("pb_list_backups",
				mcp.WithDescription("List backup files with size and modification time."),
			),
			Handler: handleListBackups,
		},
		{
			Tool: mcp.NewTool("pb_create_backup",
				mcp.WithDescription("Create a new backup of the instance. The name is optional and must match [a-z0-9_-].zip."),
				mcp.WithString("name", mcp.Description("Backup file name, e.g. before_migration.zip")),
			),
			Handler: handleCreateBackup,
		},
	}
}

func handleListLogs(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := listOptions(req)
	if opts.Sort == "" {
		opts.Sort = "-created"
	}
	var list *pocketbase.List[map[string]any]
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		list, err = c.Logs(ctx, opts)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).Detail("count", len(list.Items))
	return envelope.Value("logs", list), nil
}

func handleGetSettings(ctx context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var settings map[string]any
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		settings, err = c.Settings(ctx)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("settings", settings), nil
}

func handleListBackups(ctx context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var backups []pocketbase.Backup
	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		backups, err = c.Backups(ctx)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	if backups == nil {
		backups = []pocketbase.Backup{}
	}
	return envelope.Value("backups", backups), nil
}

func handleCreateBackup(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := params.String(req, "name", "")
	if name != "" && !backupName.MatchString(name) {
		return envelope.Invalid("backup name %q must match [a-z0-9_-].zip", name), nil
	}
	log.FromContext(ctx).Target(name)

	err := run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.CreateBackup(ctx, name)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"created": true, "name": name}), nil
}
