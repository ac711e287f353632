package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/config"
	"github.com/graforest-inc/graforest-mcp/pkg/scrape"
)

const testUserKey = "gf_sk_user_key_0123456789abcdef"

// newToolServer builds an MCP server with every tool and prompt registered.
func newToolServer(deps *ToolDeps) *server.MCPServer {
	s := server.NewMCPServer("graforest-test", "0.0.1",
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true))
	RegisterAll(s, deps)
	return s
}

func newTestDeps(graphAPI GraphAPI, gatewayCfg config.GatewayConfig) *ToolDeps {
	return &ToolDeps{
		Graph:         graphAPI,
		GatewayConfig: gatewayCfg,
		Fetcher:       scrape.NewFetcher(),
		Logger:        zap.NewNop(),
	}
}

// testGatewayConfig is a gateway config for tests that never reach the
// gateway; the URL is unroutable on purpose.
func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		URL:                   "http://127.0.0.1:0",
		ServiceKey:            "rb_sk_service_key_0123456789",
		RequestTimeoutSeconds: 1,
		PollIntervalSeconds:   1,
		PollMaxWaitSeconds:    2,
	}
}

// authedContext returns a context carrying a caller token, as the HTTP auth
// middleware would produce.
func authedContext() context.Context {
	return auth.WithToken(context.Background(), testUserKey)
}

type mcpError struct {
	Code    int
	Message string
}

func (e *mcpError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// toolResult is the decoded shape of a tools/call response.
type toolResult struct {
	Text    string
	IsError bool
}

// callTool executes an MCP tool via the server's HandleMessage method.
func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, toolName string, arguments map[string]any) (*toolResult, error) {
	t.Helper()

	callReq := map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"id":      1,
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
	reqBytes, err := json.Marshal(callReq)
	require.NoError(t, err)

	raw := s.HandleMessage(ctx, reqBytes)
	rawBytes, err := json.Marshal(raw)
	require.NoError(t, err)

	var response struct {
		Result *struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result,omitempty"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	require.NoError(t, json.Unmarshal(rawBytes, &response))

	if response.Error != nil {
		return nil, &mcpError{Code: response.Error.Code, Message: response.Error.Message}
	}
	require.NotNil(t, response.Result)
	require.NotEmpty(t, response.Result.Content)
	require.Equal(t, "text", response.Result.Content[0].Type)

	return &toolResult{
		Text:    response.Result.Content[0].Text,
		IsError: response.Result.IsError,
	}, nil
}

// resultText extracts the text payload from an in-memory tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}

// decodeResult parses a tool result's JSON payload.
func decodeResult(t *testing.T, result *toolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	return payload
}

// requireErrorResult asserts a structured error result with the given code.
func requireErrorResult(t *testing.T, result *toolResult, code string) map[string]any {
	t.Helper()
	require.True(t, result.IsError)
	payload := decodeResult(t, result)
	require.Equal(t, true, payload["error"])
	require.Equal(t, code, payload["code"])
	return payload
}

// toolCall is one recorded invocation against the fake gateway.
type toolCall struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// fakeGateway serves the gateway's tool execution envelope for tests.
type fakeGateway struct {
	t          *testing.T
	responders map[string]func(call toolCall) (any, string)
	calls      []toolCall
}

func newFakeGateway(t *testing.T) *fakeGateway {
	return &fakeGateway{t: t, responders: make(map[string]func(call toolCall) (any, string))}
}

func (f *fakeGateway) respond(tool string, fn func(call toolCall) (any, string)) {
	f.responders[tool] = fn
}

func (f *fakeGateway) callsFor(tool string) []toolCall {
	var matched []toolCall
	for _, c := range f.calls {
		if c.Tool == tool {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *fakeGateway) start() (*httptest.Server, config.GatewayConfig) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, http.MethodPost, r.Method)
		require.Equal(f.t, "/api/mcp/execute", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(f.t, err)
		var call toolCall
		require.NoError(f.t, json.Unmarshal(body, &call))
		f.calls = append(f.calls, call)

		responder, ok := f.responders[call.Tool]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "unexpected tool: " + call.Tool,
			})
			return
		}

		result, errMsg := responder(call)
		response := map[string]any{"success": errMsg == ""}
		if errMsg != "" {
			response["error"] = errMsg
		} else {
			response["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))

	cfg := config.GatewayConfig{
		URL:                   server.URL,
		ServiceKey:            "rb_sk_service_key_0123456789",
		RequestTimeoutSeconds: 5,
		PollIntervalSeconds:   1,
		PollMaxWaitSeconds:    5,
	}
	return server, cfg
}
