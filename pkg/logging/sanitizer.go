package logging

import (
	"regexp"
)

const (
	// MaxBodyLogLength is the maximum length of a remote response body to log
	MaxBodyLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match bearer tokens in headers or error text
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9._\-]+`)

	// Pattern to match Graforest and RationalBloks secret keys wherever they appear.
	// Both key families share the <issuer>_sk_<random> shape.
	secretKeyPattern = regexp.MustCompile(`\b(gf|rb)_sk_[A-Za-z0-9_\-]+`)

	// Pattern to match api_key=... style query or form parameters
	apiKeyParamPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)
)

// SanitizeToken redacts credential material from a string before logging.
// Use this on anything that may carry an Authorization header value or a
// Graforest/RationalBloks key.
func SanitizeToken(s string) string {
	if s == "" {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = apiKeyParamPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error from remote HTTP operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeToken(err.Error())
}

// KeyFingerprint returns a loggable fingerprint of an API key: its prefix and
// first few random characters, never the full key.
func KeyFingerprint(key string) string {
	if len(key) <= 12 {
		return RedactedText
	}
	return key[:12] + "..."
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
