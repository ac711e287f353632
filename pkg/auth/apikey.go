// Package auth provides API key format validation and request-scoped token
// plumbing for the MCP server.
//
// Graforest keys follow the OAuth2 Bearer token pattern (RFC 6750) with the
// gf_sk_ prefix. Validation here is format-only; cryptographic verification is
// owned by the downstream services the keys are forwarded to.
package auth

import "strings"

const (
	// APIKeyPrefix is the prefix every Graforest key starts with.
	APIKeyPrefix = "gf_sk_"

	// minKeyRandomLength is the minimum number of characters after the prefix.
	minKeyRandomLength = 20

	bearerPrefix = "Bearer "
)

// ValidateAPIKey checks a key's format. It returns false with a caller-facing
// reason when the key is unusable.
func ValidateAPIKey(apiKey string) (bool, string) {
	if apiKey == "" {
		return false, "API key is required"
	}
	if !strings.HasPrefix(apiKey, APIKeyPrefix) {
		return false, "Invalid API key format - must start with '" + APIKeyPrefix + "'"
	}
	if len(apiKey) < len(APIKeyPrefix)+minKeyRandomLength {
		return false, "API key is too short"
	}
	return true, ""
}

// ExtractBearerKey pulls a valid Graforest key out of an Authorization header
// value. Returns "" when the header is absent, not a bearer header, or the
// key fails format validation.
func ExtractBearerKey(authorizationHeader string) string {
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return ""
	}
	apiKey := authorizationHeader[len(bearerPrefix):]
	if ok, _ := ValidateAPIKey(apiKey); !ok {
		return ""
	}
	return apiKey
}
