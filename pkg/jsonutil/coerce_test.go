package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string passes through", "entity-1", "entity-1"},
		{"integral float", float64(42), "42"},
		{"fractional float", float64(4.5), "4.5"},
		{"int", 7, "7"},
		{"int64", int64(9000000000), "9000000000"},
		{"json.Number", json.Number("123"), "123"},
		{"nil", nil, "0"},
		{"map", map[string]any{}, "0"},
		{"bool", true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceID(tt.in))
		})
	}
}
