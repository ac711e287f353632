// Package graph provides the client and response normalization for deployed
// Graph APIs.
//
// Graph APIs speak their own field names: entity_id, hierarchical_path, rel_id,
// rel_type. Callers of this package get a stable shape instead: id, labels,
// type, from_id, to_id. Normalization is pure and total: missing fields map to
// documented defaults, never to an error.
package graph

import (
	"strings"

	"github.com/graforest-inc/graforest-mcp/pkg/jsonutil"
)

// Node is the caller-facing shape of a graph node.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relationship is the caller-facing shape of a graph relationship.
type Relationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	FromID     string         `json:"from_id"`
	ToID       string         `json:"to_id"`
	Properties map[string]any `json:"properties"`
}

// relationshipReservedKeys are the Graph API internal fields excluded from a
// normalized relationship's properties. Everything else passes through.
var relationshipReservedKeys = map[string]struct{}{
	"rel_id":    {},
	"from_id":   {},
	"to_id":     {},
	"rel_type":  {},
	"from_path": {},
	"to_path":   {},
}

// NormalizeNode maps a raw Graph API node record to the stable Node shape.
// The label is the last segment of the colon-delimited hierarchical_path,
// "Unknown" when the path is empty or absent. Properties carry the full
// original record plus an explicit id field.
func NormalizeNode(record map[string]any) Node {
	entityID := stringField(record, "entity_id")
	path := stringField(record, "hierarchical_path")

	label := "Unknown"
	if path != "" {
		segments := strings.Split(path, ":")
		label = segments[len(segments)-1]
	}

	properties := make(map[string]any, len(record)+1)
	for k, v := range record {
		properties[k] = v
	}
	properties["id"] = entityID

	return Node{
		ID:         entityID,
		Labels:     []string{label},
		Properties: properties,
	}
}

// NormalizeRelationship maps a raw Graph API relationship record to the stable
// Relationship shape. The id comes from rel_id, falling back to id, falling
// back to 0, and is always coerced to a string.
func NormalizeRelationship(record map[string]any) Relationship {
	id, ok := record["rel_id"]
	if !ok {
		id, ok = record["id"]
	}
	if !ok {
		id = 0
	}

	relType, ok := record["rel_type"].(string)
	if !ok {
		relType = stringField(record, "type")
	}

	properties := make(map[string]any)
	for k, v := range record {
		if _, reserved := relationshipReservedKeys[k]; reserved {
			continue
		}
		properties[k] = v
	}

	return Relationship{
		ID:         jsonutil.CoerceID(id),
		Type:       relType,
		FromID:     stringField(record, "from_id"),
		ToID:       stringField(record, "to_id"),
		Properties: properties,
	}
}

// stringField returns the record's value for key when it is a string, else "".
func stringField(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return s
}
