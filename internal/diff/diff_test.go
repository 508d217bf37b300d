package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecords(t *testing.T) {
	before := map[string]any{"id": "abc", "title": "old", "views": float64(3)}
	after := Apply(before, map[string]any{"title": "new"})

	r := Records(before, after, "posts/abc", "posts/abc (proposed)")
	assert.Contains(t, r.Diff, `- title: "old"`)
	assert.Contains(t, r.Diff, `+ title: "new"`)
	assert.Contains(t, r.Diff, `  id: "abc"`)
	assert.False(t, r.Empty())

	out := r.Format(false)
	assert.True(t, strings.HasPrefix(out, "--- posts/abc\n+++ posts/abc (proposed)\n"))

	same := Records(before, before, "a", "b")
	assert.True(t, same.Empty())
}

func TestFields(t *testing.T) {
	before := map[string]any{"title": "old", "views": float64(3), "tags": []any{"a"}}
	patch := map[string]any{"title": "new", "views": 3, "tags": []any{"a"}, "extra": true}

	changes := Fields(before, patch)
	assert.Equal(t, []Change{
		{Field: "extra", Old: nil, New: true},
		{Field: "title", Old: "old", New: "new"},
	}, changes)
}

func TestApplyDoesNotMutate(t *testing.T) {
	before := map[string]any{"a": 1}
	_ = Apply(before, map[string]any{"a": 2})
	assert.Equal(t, 1, before["a"])
}

func TestColourise(t *testing.T) {
	out := Colourise("- gone\n+ added\n  same\n")
	assert.Contains(t, out, "\033[31m- gone\033[0m")
	assert.Contains(t, out, "\033[32m+ added\033[0m")
	assert.Contains(t, out, "  same\n")
}

func TestComputeCollapsesContext(t *testing.T) {
	var lines []string
	for i := range 20 {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	old := strings.Join(lines, "\n") + "\n"
	changed := strings.Replace(old, "xxxxxxxxxx\n", "changed\n", 1)

	r := Compute(old, changed, "a", "b")
	assert.Contains(t, r.Diff, "  ...\n")
	assert.Contains(t, r.Diff, "- xxxxxxxxxx\n")
	assert.Contains(t, r.Diff, "+ changed\n")
}
