package extension

import (
	"context"
	"testing"

	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testExtension is a minimal Extension implementation for testing.
type testExtension struct {
	name  string
	tools []string
}

func (e testExtension) Name() string               { return e.name }
func (e testExtension) Commands() []*cobra.Command { return nil }
func (e testExtension) MCPTools() []MCPTool {
	var out []MCPTool
	for _, n := range e.tools {
		out = append(out, MCPTool{
			Tool: mcp.NewTool(n),
			Handler: func(context.Context, Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText(n), nil
			},
		})
	}
	return out
}

func register(t *testing.T, e Extension) {
	t.Helper()
	Register(e)
	t.Cleanup(func() { unregister(e.Name()) })
}

func TestRegister_PanicOnDuplicate(t *testing.T) {
	register(t, testExtension{name: "test-duplicate-panic"})

	assert.Panics(t, func() { Register(testExtension{name: "test-duplicate-panic"}) })
}

func TestRegistry_Order(t *testing.T) {
	register(t, testExtension{name: "test-b"})
	register(t, testExtension{name: "test-a"})

	names := Names()
	ib, ia := -1, -1
	for i, n := range names {
		switch n {
		case "test-b":
			ib = i
		case "test-a":
			ia = i
		}
	}
	require.NotEqual(t, -1, ia)
	assert.Less(t, ib, ia, "registration order is preserved")
	assert.NotNil(t, Get("test-a"))
	assert.Nil(t, Get("test-missing"))
}

func TestTools_SortedAndUnique(t *testing.T) {
	register(t, testExtension{name: "test-tools", tools: []string{"zz_test_last", "aa_test_first"}})

	tools := Tools()
	var names []string
	for _, tl := range tools {
		names = append(names, tl.Tool.Name)
	}
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "aa_test_first")

	register(t, testExtension{name: "test-tools-dup", tools: []string{"aa_test_first"}})
	assert.Panics(t, func() { Tools() })
}

func TestContext(t *testing.T) {
	cfg := &config.Config{}
	svc := service.New(cfg)
	defer svc.Close()

	ctx := NewContext(svc, cfg)
	assert.Same(t, svc, ctx.Service())
	assert.Same(t, cfg, ctx.Config())
}
