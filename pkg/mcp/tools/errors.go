package tools

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the calling LLM
// as a successful tool result, ensuring error details are visible
// rather than being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable/actionable errors that the caller should see and
// can potentially fix (e.g., invalid parameters, rejected bulk writes).
//
// Do NOT use this for system failures (gateway connection errors, internal
// server errors) - those should still return Go errors.
//
// Example:
//
//	if _, err := uuid.Parse(projectID); err != nil {
//	    return NewErrorResult("invalid_project_id", "project_id must be a UUID"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context.
// The details field can contain any additional information that might help
// the caller understand and respond to the error.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// inputErrorPatterns are substrings that indicate an error is due to caller
// input rather than a server failure. These errors should be logged at
// DEBUG/INFO level, not ERROR level, because they are expected when callers
// provide invalid input.
var inputErrorPatterns = []string{
	"not found",
	"too short",
	"too large",
	"invalid",
	"missing required",
	"cannot be empty",
	"must be",
	"already exists",
}

// IsInputError returns true if the error appears to be caused by caller input
// rather than a server failure. Input errors include:
//   - Validation failures (bad project IDs, short content, malformed batches)
//   - Resource not found (caller provided an unknown code or ID)
//
// These errors should be logged at DEBUG level, not ERROR level.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range inputErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
