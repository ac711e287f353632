package auth

import (
	"context"

	"github.com/graforest-inc/graforest-mcp/pkg/apperrors"
)

type contextKey string

// TokenKey is the context key the HTTP middleware stores the caller's bearer
// token under.
const TokenKey contextKey = "graforest.token"

// WithToken returns a context carrying the caller's API key.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// TokenFromContext extracts the caller's API key from the context.
// Returns "" and false when no token was injected.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RequireToken extracts the caller's API key or fails with
// apperrors.ErrMissingToken. Graph data operations use this: they forward the
// caller's own credential, never the service account key.
func RequireToken(ctx context.Context) (string, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return "", apperrors.ErrMissingToken
	}
	return token, nil
}
