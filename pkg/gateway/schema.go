package gateway

// DefaultKnowledgeGraphSchema returns the schema used when a caller provisions
// a graph project without supplying one. It is a general-purpose knowledge
// graph model: Topic (with nested TechnicalTopic and ProgrammingLanguage
// specializations), Article, Author, and Concept node types, connected by
// AUTHORED, COVERS, REFERENCES, PREREQUISITE_OF, and DEFINES.
//
// A fresh copy is returned on every call so callers can never mutate shared
// state.
func DefaultKnowledgeGraphSchema() map[string]any {
	return map[string]any{
		"nodes": map[string]any{
			"Topic": map[string]any{
				"description": "A broad knowledge area",
				"flat_labels": []any{"Category"},
				"schema": map[string]any{
					"name":        map[string]any{"type": "string", "required": true},
					"description": map[string]any{"type": "string"},
				},
				"TechnicalTopic": map[string]any{
					"description": "A technical/scientific topic",
					"flat_labels": []any{"Technical"},
					"schema": map[string]any{
						"domain":           map[string]any{"type": "string", "required": true},
						"difficulty_level": map[string]any{"type": "string"},
					},
					"ProgrammingLanguage": map[string]any{
						"description": "A programming language",
						"flat_labels": []any{"Language"},
						"schema": map[string]any{
							"paradigm":       map[string]any{"type": "string", "required": true},
							"first_appeared": map[string]any{"type": "integer"},
							"typing":         map[string]any{"type": "string"},
						},
					},
				},
			},
			"Article": map[string]any{
				"description": "A written piece of content",
				"flat_labels": []any{"Document"},
				"schema": map[string]any{
					"title":          map[string]any{"type": "string", "required": true},
					"abstract":       map[string]any{"type": "string", "required": true},
					"published_date": map[string]any{"type": "date"},
					"doi":            map[string]any{"type": "string"},
					"url":            map[string]any{"type": "string"},
				},
			},
			"Author": map[string]any{
				"description": "A content creator or researcher",
				"flat_labels": []any{"Person"},
				"schema": map[string]any{
					"name":        map[string]any{"type": "string", "required": true},
					"affiliation": map[string]any{"type": "string"},
					"orcid":       map[string]any{"type": "string"},
					"email":       map[string]any{"type": "string"},
				},
			},
			"Concept": map[string]any{
				"description": "An abstract concept or idea",
				"flat_labels": []any{"Idea"},
				"schema": map[string]any{
					"name":       map[string]any{"type": "string", "required": true},
					"definition": map[string]any{"type": "string", "required": true},
					"aliases":    map[string]any{"type": "json"},
				},
			},
		},
		"relationships": map[string]any{
			"AUTHORED": map[string]any{
				"from":        "Author",
				"to":          "Article",
				"cardinality": "ONE_TO_MANY",
				"data_schema": map[string]any{
					"contribution": map[string]any{"type": "string"},
				},
			},
			"COVERS": map[string]any{
				"from":        "Article",
				"to":          "Topic",
				"cardinality": "MANY_TO_MANY",
			},
			"REFERENCES": map[string]any{
				"from":        "Article",
				"to":          "Article",
				"cardinality": "MANY_TO_MANY",
				"data_schema": map[string]any{
					"context": map[string]any{"type": "string"},
				},
			},
			"PREREQUISITE_OF": map[string]any{
				"from":        "Concept",
				"to":          "Concept",
				"cardinality": "MANY_TO_MANY",
				"data_schema": map[string]any{
					"strength": map[string]any{"type": "string"},
				},
			},
			"DEFINES": map[string]any{
				"from":        "Article",
				"to":          "Concept",
				"cardinality": "MANY_TO_MANY",
			},
		},
	}
}
