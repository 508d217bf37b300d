package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/credential"
	"github.com/jpl-au/pbmcp/internal/executor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestOK(t *testing.T) {
	res := OK(Fields{"record": map[string]any{"id": "abc"}, "success": false})
	assert.False(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, true, body["success"], "success cannot be overridden by the payload")
	assert.Equal(t, "abc", body["record"].(map[string]any)["id"])

	body = decode(t, Value("count", 3))
	assert.Equal(t, float64(3), body["count"])
}

func TestError_RemoteFailure(t *testing.T) {
	cause := &apierr.Error{
		Service: "pocketbase",
		Status:  400,
		Message: "Failed to create record.",
		Data:    map[string]any{"title": map[string]any{"code": "validation_required"}},
	}
	err := &executor.Failure{Class: apierr.ClassValidation, Attempts: 1, Err: cause}

	res := Error(err)
	assert.True(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "400", body["code"])
	assert.Equal(t, apierr.ClassValidation.Hint(), body["hint"])
	assert.Equal(t, float64(1), body["attempts"])
	assert.Contains(t, body["error"], "Failed to create record.")
	assert.Contains(t, body["details"], "title")
}

func TestError_ClassFromExecutor(t *testing.T) {
	// The executor recorded a transport failure even though the cause
	// is a bare deadline wrapped in text.
	err := &executor.Failure{Class: apierr.ClassTransport, Attempts: 2, Err: errors.New("timed out")}
	body := decode(t, Error(err))
	assert.Equal(t, apierr.ClassTransport.Hint(), body["hint"])
	assert.Equal(t, float64(2), body["attempts"])
}

func TestError_Configuration(t *testing.T) {
	err := &credential.ConfigurationError{Violations: []string{credential.MsgURLInvalid, credential.MsgAdminPair}}
	body := decode(t, Error(err))
	assert.Equal(t, "configuration_error", body["code"])
	assert.Equal(t, apierr.ClassConfiguration.Hint(), body["hint"])
	assert.Len(t, body["details"].(map[string]any)["violations"], 2)
	_, hasAttempts := body["attempts"]
	assert.False(t, hasAttempts)
}

func TestInvalid(t *testing.T) {
	res := Invalid("collection %q is not valid", "bad name")
	assert.True(t, res.IsError)
	body := decode(t, res)
	assert.Equal(t, "validation_error", body["code"])
	assert.Contains(t, body["error"], `collection "bad name" is not valid`)
}

func TestDescribe_Unavailable(t *testing.T) {
	f := Describe(fmt.Errorf("%w: stripe secret key not configured", apierr.ErrUnavailable))
	assert.Equal(t, "unavailable", f.Code)
	assert.Equal(t, apierr.ClassUnavailable.Hint(), f.Hint)
	assert.False(t, f.Success)
}

func TestParse(t *testing.T) {
	f, ok := Parse(Error(&executor.Failure{Class: apierr.ClassNotFound, Attempts: 1,
		Err: &apierr.Error{Service: "pocketbase", Status: 404, Message: "missing"}}))
	require.True(t, ok)
	assert.Equal(t, "404", f.Code)
	assert.Equal(t, 1, f.Attempts)

	_, ok = Parse(OK(nil))
	assert.False(t, ok)

	f, ok = Parse(mcp.NewToolResultError("plain text"))
	require.True(t, ok)
	assert.Equal(t, "plain text", f.Error)
	assert.Equal(t, "unknown_error", f.Code)
}
