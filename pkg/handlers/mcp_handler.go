package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/mcp"
	mcpauth "github.com/graforest-inc/graforest-mcp/pkg/mcp/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
	}
}

// RegisterRoutes registers the MCP endpoint.
// Middleware layers, innermost first: the streamable MCP server, bearer key
// authentication, then a method check that rejects non-POST before auth runs.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, mcpAuthMiddleware *mcpauth.Middleware) {
	authHandler := mcpAuthMiddleware.RequireAuth()(h.httpServer)
	mux.Handle("/mcp", h.requirePOST(authHandler))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "MCP endpoint requires POST")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux assembles the service's full HTTP routing table: health endpoints
// and the authenticated MCP endpoint, all wrapped in request logging.
func NewMux(health *HealthHandler, mcpHandler *MCPHandler, mcpAuthMiddleware *mcpauth.Middleware, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	mcpHandler.RegisterRoutes(mux, mcpAuthMiddleware)
	return middleware.RequestLogger(logger)(mux)
}
