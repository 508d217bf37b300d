package params

import (
	"testing"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(a map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = a
	return req
}

func TestScalars(t *testing.T) {
	req := request(map[string]any{
		"name":   "posts",
		"blank":  "  ",
		"flag":   true,
		"wrong":  "true",
		"page":   float64(3),
		"amount": 12.5,
	})

	assert.Equal(t, "posts", String(req, "name", "x"))
	assert.Equal(t, "x", String(req, "missing", "x"))
	assert.True(t, Bool(req, "flag", false))
	assert.False(t, Bool(req, "wrong", false), "string booleans fall back to the default")
	assert.Equal(t, 3, Int(req, "page", 1))
	assert.Equal(t, 1, Int(req, "name", 1))

	f, ok := Float(req, "amount")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, f, 0.0001)
	_, ok = Float(req, "missing")
	assert.False(t, ok)

	assert.True(t, Has(req, "flag"))
	assert.False(t, Has(req, "missing"))
}

func TestRequire(t *testing.T) {
	req := request(map[string]any{"name": "posts", "blank": "  "})

	v, err := Require(req, "name")
	require.NoError(t, err)
	assert.Equal(t, "posts", v)

	_, err = Require(req, "blank")
	assert.ErrorIs(t, err, apierr.ErrInvalidInput)
	_, err = Require(req, "missing")
	assert.ErrorIs(t, err, apierr.ErrInvalidInput)
	assert.ErrorContains(t, err, "missing is required")
}

func TestCollections(t *testing.T) {
	req := request(map[string]any{
		"to":       []any{"a@example.com", 5, "b@example.com"},
		"single":   "c@example.com",
		"data":     map[string]any{"title": "hi"},
		"requests": []any{map[string]any{"method": "POST"}},
		"bad":      []any{"nope"},
		"meta":     map[string]any{"order": float64(42), "vip": true},
	})

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, Strings(req, "to"))
	assert.Equal(t, []string{"c@example.com"}, Strings(req, "single"))
	assert.Nil(t, Strings(req, "missing"))

	assert.Equal(t, "hi", Object(req, "data")["title"])
	assert.Nil(t, Object(req, "to"))

	objs, err := Objects(req, "requests")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
	_, err = Objects(req, "bad")
	assert.ErrorIs(t, err, apierr.ErrInvalidInput)

	assert.Equal(t, map[string]any{"order": "42", "vip": "true"}, Metadata(req, "meta"))
	assert.Nil(t, Metadata(req, "missing"))
}

func TestNoArguments(t *testing.T) {
	var req mcp.CallToolRequest
	assert.Equal(t, "d", String(req, "x", "d"))
	assert.Nil(t, Object(req, "x"))
	assert.False(t, Has(req, "x"))
}
