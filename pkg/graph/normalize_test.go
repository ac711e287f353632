package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNode_LabelFromHierarchicalPath(t *testing.T) {
	tests := []struct {
		name string
		path any
		want string
	}{
		{"single segment", "Topic", "Topic"},
		{"nested path takes last segment", "Topic:TechnicalTopic:ProgrammingLanguage", "ProgrammingLanguage"},
		{"empty path", "", "Unknown"},
		{"absent path", nil, "Unknown"},
		{"non-string path", 42, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := map[string]any{"entity_id": "go-lang"}
			if tt.path != nil {
				record["hierarchical_path"] = tt.path
			}

			node := NormalizeNode(record)
			assert.Equal(t, []string{tt.want}, node.Labels)
		})
	}
}

func TestNormalizeNode_PropertiesIncludeIDAndOriginalFields(t *testing.T) {
	record := map[string]any{
		"entity_id":         "machine-learning",
		"hierarchical_path": "Topic:TechnicalTopic",
		"name":              "Machine Learning",
	}

	node := NormalizeNode(record)

	assert.Equal(t, "machine-learning", node.ID)
	assert.Equal(t, "machine-learning", node.Properties["id"])
	assert.Equal(t, "Machine Learning", node.Properties["name"])
	assert.Equal(t, "Topic:TechnicalTopic", node.Properties["hierarchical_path"])
}

func TestNormalizeNode_MissingEntityID(t *testing.T) {
	node := NormalizeNode(map[string]any{})

	assert.Equal(t, "", node.ID)
	assert.Equal(t, []string{"Unknown"}, node.Labels)
	assert.Equal(t, "", node.Properties["id"])
}

func TestNormalizeNode_DoesNotMutateInput(t *testing.T) {
	record := map[string]any{"entity_id": "x"}
	NormalizeNode(record)

	_, hasID := record["id"]
	assert.False(t, hasID, "input record must not gain an id field")
}

func TestNormalizeRelationship_IDCoercion(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
	}{
		{"numeric rel_id", map[string]any{"rel_id": float64(42)}, "42"},
		{"string rel_id", map[string]any{"rel_id": "r-1"}, "r-1"},
		{"fallback to id", map[string]any{"id": float64(7)}, "7"},
		{"rel_id wins over id", map[string]any{"rel_id": float64(1), "id": float64(2)}, "1"},
		{"no id at all", map[string]any{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := NormalizeRelationship(tt.record)
			assert.Equal(t, tt.want, rel.ID)
		})
	}
}

func TestNormalizeRelationship_TypeFallback(t *testing.T) {
	rel := NormalizeRelationship(map[string]any{"rel_type": "AUTHORED"})
	assert.Equal(t, "AUTHORED", rel.Type)

	rel = NormalizeRelationship(map[string]any{"type": "COVERS"})
	assert.Equal(t, "COVERS", rel.Type)

	rel = NormalizeRelationship(map[string]any{})
	assert.Equal(t, "", rel.Type)
}

func TestNormalizeRelationship_ReservedKeysExcludedFromProperties(t *testing.T) {
	record := map[string]any{
		"rel_id":    float64(9),
		"rel_type":  "REFERENCES",
		"from_id":   "article-a",
		"to_id":     "article-b",
		"from_path": "Article",
		"to_path":   "Article",
		"context":   "cited in section 2",
		"weight":    float64(0.8),
	}

	rel := NormalizeRelationship(record)

	assert.Equal(t, "9", rel.ID)
	assert.Equal(t, "REFERENCES", rel.Type)
	assert.Equal(t, "article-a", rel.FromID)
	assert.Equal(t, "article-b", rel.ToID)

	for _, reserved := range []string{"rel_id", "from_id", "to_id", "rel_type", "from_path", "to_path"} {
		_, ok := rel.Properties[reserved]
		assert.False(t, ok, "reserved key %q must not appear in properties", reserved)
	}
	assert.Equal(t, "cited in section 2", rel.Properties["context"])
	assert.Equal(t, float64(0.8), rel.Properties["weight"])
}

func TestNormalizeRelationship_MissingEndpoints(t *testing.T) {
	rel := NormalizeRelationship(map[string]any{"rel_id": "r"})

	assert.Equal(t, "", rel.FromID)
	assert.Equal(t, "", rel.ToID)
}
