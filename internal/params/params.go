// Package params extracts typed arguments from MCP tool requests.
//
// Extraction is permissive: an optional argument that is missing or has the
// wrong type yields the caller's default. LLMs often omit optional
// arguments or send them in unexpected shapes, and a sensible default keeps
// the tool usable. Required arguments go through Require, which reports the
// problem as invalid input.
package params

import (
	"fmt"
	"strings"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/mark3labs/mcp-go/mcp"
)

func args(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

// Has reports whether the argument was supplied at all.
func Has(req mcp.CallToolRequest, name string) bool {
	_, ok := args(req)[name]
	return ok
}

// String returns a string argument, or def.
func String(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// Require returns a non-blank string argument or an error wrapping
// apierr.ErrInvalidInput.
func Require(req mcp.CallToolRequest, name string) (string, error) {
	v, err := req.RequireString(name)
	if err != nil || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s is required", apierr.ErrInvalidInput, name)
	}
	return v, nil
}

// Bool returns a boolean argument, or def.
func Bool(req mcp.CallToolRequest, name string, def bool) bool {
	if v, ok := args(req)[name].(bool); ok {
		return v
	}
	return def
}

// Int returns an integer argument, or def. JSON numbers decode as float64.
func Int(req mcp.CallToolRequest, name string, def int) int {
	if v, ok := args(req)[name].(float64); ok {
		return int(v)
	}
	return def
}

// Float returns a numeric argument and whether it was present.
func Float(req mcp.CallToolRequest, name string) (float64, bool) {
	v, ok := args(req)[name].(float64)
	return v, ok
}

// Strings returns a string array argument. Non-string elements are skipped.
// A single string is accepted as a one-element list. Returns nil when the
// argument is absent.
func Strings(req mcp.CallToolRequest, name string) []string {
	switch v := args(req)[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Object returns an object argument, or nil.
func Object(req mcp.CallToolRequest, name string) map[string]any {
	m, _ := args(req)[name].(map[string]any)
	return m
}

// Objects returns an array-of-objects argument. Elements that are not
// objects are reported as invalid input.
func Objects(req mcp.CallToolRequest, name string) ([]map[string]any, error) {
	raw, ok := args(req)[name].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(raw))
	for i, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", apierr.ErrInvalidInput, name, i)
		}
		out = append(out, m)
	}
	return out, nil
}

// Metadata returns a string-keyed metadata object with every value
// converted to a string, the form Stripe stores.
func Metadata(req mcp.CallToolRequest, name string) map[string]any {
	m := Object(req, name)
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
