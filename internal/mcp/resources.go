// resources.go implements read-only MCP resources for PocketBase.
//
// Resources let a client load a collection schema or a record as context
// without a tool call:
//
//	pocketbase://collections/{name}
//	pocketbase://records/{collection}/{id}
//
// Reads go through the PocketBase executor, so they share the session,
// retry policy and activity tracking of the tools.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/session"
	"github.com/jpl-au/pbmcp/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	collectionPrefix = "pocketbase://collections/"
	recordPrefix     = "pocketbase://records/"
	jsonMIME         = "application/json"
)

// ErrInvalidURI indicates a malformed resource URI.
var ErrInvalidURI = errors.New("invalid URI")

type resources struct {
	extCtx extension.Context
}

func registerResources(s *server.MCPServer, r *resources) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			collectionPrefix+"{name}",
			"Collection",
			mcp.WithTemplateDescription("PocketBase collection definition: fields, rules and options"),
			mcp.WithTemplateMIMEType(jsonMIME),
		),
		r.readCollection,
	)
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			recordPrefix+"{collection}/{id}",
			"Record",
			mcp.WithTemplateDescription("A single PocketBase record"),
			mcp.WithTemplateMIMEType(jsonMIME),
		),
		r.readRecord,
	)
}

func (r *resources) readCollection(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts, err := parseURI(req.Params.URI, collectionPrefix, 1)
	if err != nil {
		return nil, err
	}
	name := parts[0]
	if err := validate.Collection(name); err != nil {
		return nil, err
	}

	var v any
	_, err = r.extCtx.Service().PocketBase().Execute(ctx, func(ctx context.Context, s session.Session) error {
		c, err := s.Client.GetCollection(ctx, name)
		v = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return contents(req.Params.URI, v)
}

func (r *resources) readRecord(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts, err := parseURI(req.Params.URI, recordPrefix, 2)
	if err != nil {
		return nil, err
	}
	coll, id := parts[0], parts[1]
	if err := validate.Collection(coll); err != nil {
		return nil, err
	}
	if err := validate.RecordID(id); err != nil {
		return nil, err
	}

	var v any
	_, err = r.extCtx.Service().PocketBase().Execute(ctx, func(ctx context.Context, s session.Session) error {
		rec, err := s.Client.GetRecord(ctx, coll, id, "", "")
		v = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return contents(req.Params.URI, v)
}

func contents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: jsonMIME, Text: string(data)},
	}, nil
}

// parseURI splits the path after prefix into exactly n unescaped segments.
func parseURI(uri, prefix string, n int) ([]string, error) {
	if !strings.HasPrefix(uri, prefix) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	for i, p := range parts {
		v, err := url.PathUnescape(p)
		if err != nil || v == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
		}
		parts[i] = v
	}
	return parts, nil
}
