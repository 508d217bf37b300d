// Package envelope builds the JSON result every tool returns.
//
// A successful call answers {"success": true, ...payload}. A failed call
// answers {"success": false, "error", "hint", "code", "details"?,
// "attempts"?} and is flagged as an MCP error result. Handlers return
// envelopes, never Go errors, so a backend failure always reaches the LLM as
// something it can read and act on.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/credential"
	"github.com/jpl-au/pbmcp/internal/executor"
	"github.com/mark3labs/mcp-go/mcp"
)

// Fields is a success payload. Keys are merged next to "success".
type Fields map[string]any

// OK returns a success envelope.
func OK(fields Fields) *mcp.CallToolResult {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	return encode(body, false)
}

// Value returns a success envelope holding v under key.
func Value(key string, v any) *mcp.CallToolResult {
	return OK(Fields{key: v})
}

// Failure is the body of an error envelope.
type Failure struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error"`
	Hint     string         `json:"hint"`
	Code     string         `json:"code"`
	Details  map[string]any `json:"details,omitempty"`
	Attempts int            `json:"attempts,omitempty"`
}

// Describe converts err into a failure body. The class recorded by the
// executor wins over re-classifying the wrapped error.
func Describe(err error) Failure {
	class := apierr.Classify(err)
	f := Failure{
		Error: err.Error(),
		Code:  apierr.Code(err),
	}

	var ef *executor.Failure
	if errors.As(err, &ef) {
		class = ef.Class
		f.Attempts = ef.Attempts
	}
	f.Hint = class.Hint()

	var ae *apierr.Error
	if errors.As(err, &ae) && len(ae.Data) > 0 {
		f.Details = ae.Data
	}
	var ce *credential.ConfigurationError
	if errors.As(err, &ce) {
		f.Details = map[string]any{"violations": ce.Violations}
	}
	return f
}

// Error returns a failure envelope for err.
func Error(err error) *mcp.CallToolResult {
	return encode(Describe(err), true)
}

// Parse recovers the failure body from an error envelope. ok is false for
// success results and for results not built by this package.
func Parse(res *mcp.CallToolResult) (f Failure, ok bool) {
	if res == nil || !res.IsError || len(res.Content) == 0 {
		return Failure{}, false
	}
	text, isText := res.Content[0].(mcp.TextContent)
	if !isText {
		return Failure{}, false
	}
	if err := json.Unmarshal([]byte(text.Text), &f); err != nil {
		return Failure{Error: text.Text, Code: apierr.ClassUnknown.String()}, true
	}
	return f, true
}

// Invalid returns a validation failure without calling any backend.
func Invalid(format string, args ...any) *mcp.CallToolResult {
	return Error(fmt.Errorf("%w: %s", apierr.ErrInvalidInput, fmt.Sprintf(format, args...)))
}

// encode pretty-prints body; LLMs read indented JSON more reliably.
func encode(body any, isError bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"success": false, "error": %q, "hint": %q, "code": %q}`,
			err.Error(), apierr.ClassUnknown.Hint(), apierr.ClassUnknown.String()))
	}
	if isError {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultText(string(data))
}
