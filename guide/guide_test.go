package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	main, err := Get("")
	require.NoError(t, err)
	assert.Contains(t, main, "# pbmcp Guide")

	pb, err := Get("pocketbase")
	require.NoError(t, err)
	assert.Contains(t, pb, "pb_update_record")

	_, err = Get("missing")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	topics, err := List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"configuration", "email", "errors", "pocketbase", "sessions", "stripe"}, topics)
	assert.NotContains(t, topics, "guide")
}
