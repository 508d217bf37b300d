// records.go implements record CRUD and batch requests.

package pocketbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jpl-au/pbmcp/internal/apierr"
)

// ErrNoMatch is returned by FirstListItem when the filter matches nothing.
var ErrNoMatch = errors.New("no record matches the filter")

// fullListBatch is the page size used by FullList.
const fullListBatch = 500

// ListRecords returns one page of records.
func (c *Client) ListRecords(ctx context.Context, collection string, opts ListOptions) (*List[Record], error) {
	var res List[Record]
	if err := c.do(ctx, http.MethodGet, collectionPath(collection, "records"), opts.query(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FullList pages through every record matching opts. Page and PerPage in
// opts are ignored. limit > 0 stops after that many records.
func (c *Client) FullList(ctx context.Context, collection string, opts ListOptions, limit int) ([]Record, error) {
	opts.PerPage = fullListBatch
	opts.SkipTotal = true

	var all []Record
	for page := 1; ; page++ {
		opts.Page = page
		res, err := c.ListRecords(ctx, collection, opts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, res.Items...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if len(res.Items) < fullListBatch {
			return all, nil
		}
	}
}

// FirstListItem returns the first record matching filter.
func (c *Client) FirstListItem(ctx context.Context, collection, filter string, opts ListOptions) (Record, error) {
	opts.Filter = filter
	opts.Page = 1
	opts.PerPage = 1
	opts.SkipTotal = true
	res, err := c.ListRecords(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, notFound(ErrNoMatch.Error())
	}
	return res.Items[0], nil
}

// GetRecord returns a record by id.
func (c *Client) GetRecord(ctx context.Context, collection, id string, expand, fields string) (Record, error) {
	q := url.Values{}
	if expand != "" {
		q.Set("expand", expand)
	}
	if fields != "" {
		q.Set("fields", fields)
	}
	var rec Record
	if err := c.do(ctx, http.MethodGet, collectionPath(collection, "records", id), q, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateRecord creates a record from data.
func (c *Client) CreateRecord(ctx context.Context, collection string, data map[string]any, expand string) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPost, collectionPath(collection, "records"), expandQuery(expand), data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRecord patches a record with data.
func (c *Client) UpdateRecord(ctx context.Context, collection, id string, data map[string]any, expand string) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPatch, collectionPath(collection, "records", id), expandQuery(expand), data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord deletes a record.
func (c *Client) DeleteRecord(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, collectionPath(collection, "records", id), nil, nil, nil)
}

// BatchRequest is one sub-request of a batch call.
type BatchRequest struct {
	Method string         `json:"method"`
	URL    string         `json:"url"`
	Body   map[string]any `json:"body,omitempty"`
}

// BatchResult is one sub-response of a batch call.
type BatchResult struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

// Batch runs requests in a single transaction. The batch API must be
// enabled in the instance settings.
func (c *Client) Batch(ctx context.Context, requests []BatchRequest) ([]BatchResult, error) {
	var res []BatchResult
	body := map[string]any{"requests": requests}
	if err := c.do(ctx, http.MethodPost, "/api/batch", nil, body, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// FileURL returns the public URL of a record file. thumb is optional
// (e.g. "100x100").
func (c *Client) FileURL(collection, recordID, filename, thumb string) string {
	u := c.BaseURL() + "/api/files/" + url.PathEscape(collection) + "/" +
		url.PathEscape(recordID) + "/" + url.PathEscape(filename)
	if thumb != "" {
		u += "?thumb=" + url.QueryEscape(thumb)
	}
	return u
}

func expandQuery(expand string) url.Values {
	if expand == "" {
		return nil
	}
	return url.Values{"expand": {expand}}
}

func notFound(msg string) error {
	return &apierr.Error{Service: Service, Status: http.StatusNotFound, Message: msg, Err: ErrNoMatch}
}
