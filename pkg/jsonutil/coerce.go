// Package jsonutil converts loosely typed JSON values. Graph API responses
// carry ids as either strings or numbers depending on the backing store, so
// callers need one string form for both.
package jsonutil

import (
	"encoding/json"
	"strconv"
)

// CoerceID renders a JSON-decoded id value as a string. Integral floats print
// without a fractional part. Values that cannot be an id render as "0".
func CoerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case json.Number:
		return id.String()
	default:
		return "0"
	}
}
