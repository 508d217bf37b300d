// collections.go implements collection management and admin endpoints.
// All of these require a superuser token.

package pocketbase

import (
	"context"
	"net/http"
)

// Collection is a collection definition (schema, rules, options).
type Collection map[string]any

// Name returns the collection name.
func (c Collection) Name() string {
	s, _ := c["name"].(string)
	return s
}

// Health is the /api/health response.
type Health struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Health checks the instance health endpoint. Works without auth.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListCollections returns one page of collections.
func (c *Client) ListCollections(ctx context.Context, opts ListOptions) (*List[Collection], error) {
	var res List[Collection]
	if err := c.do(ctx, http.MethodGet, "/api/collections", opts.query(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetCollection returns a collection by id or name.
func (c *Client) GetCollection(ctx context.Context, idOrName string) (Collection, error) {
	var col Collection
	if err := c.do(ctx, http.MethodGet, collectionPath(idOrName), nil, nil, &col); err != nil {
		return nil, err
	}
	return col, nil
}

// CreateCollection creates a collection from a definition.
func (c *Client) CreateCollection(ctx context.Context, def map[string]any) (Collection, error) {
	var col Collection
	if err := c.do(ctx, http.MethodPost, "/api/collections", nil, def, &col); err != nil {
		return nil, err
	}
	return col, nil
}

// UpdateCollection patches a collection definition.
func (c *Client) UpdateCollection(ctx context.Context, idOrName string, def map[string]any) (Collection, error) {
	var col Collection
	if err := c.do(ctx, http.MethodPatch, collectionPath(idOrName), nil, def, &col); err != nil {
		return nil, err
	}
	return col, nil
}

// DeleteCollection deletes a collection and all its records.
func (c *Client) DeleteCollection(ctx context.Context, idOrName string) error {
	return c.do(ctx, http.MethodDelete, collectionPath(idOrName), nil, nil, nil)
}

// TruncateCollection deletes every record of a collection, keeping the schema.
func (c *Client) TruncateCollection(ctx context.Context, idOrName string) error {
	return c.do(ctx, http.MethodDelete, collectionPath(idOrName, "truncate"), nil, nil, nil)
}

// Logs returns one page of request logs.
func (c *Client) Logs(ctx context.Context, opts ListOptions) (*List[map[string]any], error) {
	var res List[map[string]any]
	if err := c.do(ctx, http.MethodGet, "/api/logs", opts.query(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Settings returns the instance settings (secrets are masked by PocketBase).
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Backup describes a backup file.
type Backup struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// Backups lists the backup files.
func (c *Client) Backups(ctx context.Context) ([]Backup, error) {
	var res []Backup
	if err := c.do(ctx, http.MethodGet, "/api/backups", nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CreateBackup starts a new backup. name is optional.
func (c *Client) CreateBackup(ctx context.Context, name string) error {
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	return c.do(ctx, http.MethodPost, "/api/backups", nil, body, nil)
}
