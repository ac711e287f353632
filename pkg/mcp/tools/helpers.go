package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// trimString removes leading and trailing whitespace from a string.
// This is a common helper used across MCP tool parameter validation.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return val
}

// getOptionalFloat extracts an optional float argument from the request.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}

// getOptionalInt extracts an optional integer argument, falling back to
// defaultVal when absent. JSON numbers arrive as float64.
func getOptionalInt(req mcp.CallToolRequest, key string, defaultVal int) int {
	if val, ok := getOptionalFloat(req, key); ok {
		return int(val)
	}
	return defaultVal
}

// targetEnvironment returns the environment argument, defaulting to staging.
func targetEnvironment(req mcp.CallToolRequest) string {
	env := getOptionalString(req, "environment")
	if env == "" {
		return "staging"
	}
	return env
}

// firstString returns the first non-empty string value among keys in record.
func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// extractArrayParam extracts an array parameter that may arrive either as a
// native JSON array or as a stringified JSON array. Some MCP clients
// double-encode structured arguments; accepting both shapes keeps the bulk
// tools usable from all of them. An unparsable string is an error with
// guidance rather than a silent empty result.
func extractArrayParam(args map[string]any, key string, logger *zap.Logger) ([]any, error) {
	raw, exists := args[key]
	if !exists || raw == nil {
		return nil, nil
	}

	if arr, ok := raw.([]any); ok {
		return arr, nil
	}

	if str, ok := raw.(string); ok {
		var parsed []any
		if err := json.Unmarshal([]byte(str), &parsed); err == nil {
			if logger != nil {
				logger.Warn("array parameter arrived as a JSON string and was re-parsed",
					zap.String("parameter", key))
			}
			return parsed, nil
		}
		return nil, fmt.Errorf(
			"parameter %q was provided as a string but could not be parsed as JSON; "+
				"provide it as a native JSON array", key)
	}

	return nil, fmt.Errorf("parameter %q must be an array", key)
}

// toolResultJSON marshals a tool response and wraps it as a text result.
func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
