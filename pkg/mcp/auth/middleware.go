// Package mcpauth provides MCP-specific authentication middleware.
// It extracts the caller's Graforest API key from the Authorization header
// and returns RFC 6750 Bearer token error responses on failure.
package mcpauth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
)

// Middleware validates caller API keys for the MCP HTTP transport.
type Middleware struct {
	cache  *auth.KeyCache
	logger *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware.
func NewMiddleware(cache *auth.KeyCache, logger *zap.Logger) *Middleware {
	if cache == nil {
		cache = auth.NewKeyCache(auth.DefaultKeyCacheSize)
	}
	return &Middleware{
		cache:  cache,
		logger: logger,
	}
}

// RequireAuth validates the bearer key format and injects the key into the
// request context for tools that forward it to Graph APIs. The key is never
// cryptographically verified here; deployed Graph APIs enforce it on every
// forwarded call.
func (m *Middleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := auth.ExtractBearerKey(r.Header.Get("Authorization"))
			if apiKey == "" {
				m.logger.Debug("MCP auth failed: invalid or missing bearer key",
					zap.String("path", r.URL.Path))
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is missing or malformed")
				return
			}

			if m.cache.Get(apiKey) == nil {
				m.cache.Set(apiKey, map[string]any{"format_checked": true})
			}

			ctx := auth.WithToken(r.Context(), apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}
