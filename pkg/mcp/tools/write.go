package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/graph"
	"github.com/graforest-inc/graforest-mcp/pkg/logging"
)

// RegisterWriteTools registers the bulk data write MCP tools.
func RegisterWriteTools(s *server.MCPServer, deps *ToolDeps) {
	registerAddNodesTool(s, deps)
	registerAddRelationshipsTool(s, deps)
}

// registerAddNodesTool adds add_knowledge_nodes, the bulk entity write path.
func registerAddNodesTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"add_knowledge_nodes",
		mcp.WithDescription(
			"Bulk create entities in the knowledge graph. The LLM extracts entities from "+
				"content and provides them here. Each entity needs an entity_id (kebab-case), "+
				"entity_type (matching schema, e.g., 'Topic', 'Article', 'Author', 'Concept'), "+
				"and properties dict matching that type's schema fields.\n\n"+
				"Use get_knowledge_schema first to see available entity types and their fields.",
		),
		mcp.WithString(
			"project_code",
			mcp.Required(),
			mcp.Description("Project code (e.g., 'abc12345'), from list_knowledge_projects"),
		),
		mcp.WithArray(
			"entities",
			mcp.Required(),
			mcp.Description("Array of entities to create"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entity_id":   map[string]any{"type": "string", "description": "Unique ID (kebab-case, e.g., 'machine-learning')"},
					"entity_type": map[string]any{"type": "string", "description": "Schema entity type (e.g., 'Topic', 'Article')"},
					"properties":  map[string]any{"type": "object", "description": "Entity properties matching the schema fields"},
				},
				"required": []string{"entity_id", "entity_type", "properties"},
			}),
		),
		mcp.WithString(
			"environment",
			mcp.Description("Target environment"),
			mcp.Enum("staging", "production"),
			mcp.DefaultString("staging"),
		),
		mcp.WithTitleAnnotation("Add Knowledge Nodes"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, err := auth.RequireToken(ctx)
		if err != nil {
			return nil, err
		}
		projectCode, err := req.RequireString("project_code")
		if err != nil {
			return nil, err
		}

		entities, err := parseEntities(req, deps.Logger)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		created, err := deps.Graph.BulkCreateEntities(ctx, projectCode, targetEnvironment(req), token, entities)
		if err != nil {
			deps.Logger.Debug("bulk node write rejected",
				zap.String("project_code", projectCode),
				zap.String("error", logging.SanitizeError(err)))
			return NewErrorResult("bulk_write_failed", logging.SanitizeError(err)), nil
		}

		total := 0
		for _, n := range created {
			total += n
		}
		return toolResultJSON(map[string]any{
			"created":       created,
			"total_created": total,
			"message":       fmt.Sprintf("Created %d nodes across %d types", total, len(created)),
		})
	})
}

// registerAddRelationshipsTool adds add_knowledge_relationships.
func registerAddRelationshipsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"add_knowledge_relationships",
		mcp.WithDescription(
			"Bulk create relationships between entities in the knowledge graph. "+
				"Each relationship needs from_id, to_id (matching existing entity_ids), "+
				"rel_type (matching schema, e.g., 'AUTHORED', 'COVERS', 'REFERENCES'), "+
				"and optional properties.\n\n"+
				"Use get_knowledge_schema first to see available relationship types.",
		),
		mcp.WithString(
			"project_code",
			mcp.Required(),
			mcp.Description("Project code (e.g., 'abc12345'), from list_knowledge_projects"),
		),
		mcp.WithArray(
			"relationships",
			mcp.Required(),
			mcp.Description("Array of relationships to create"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_id":    map[string]any{"type": "string", "description": "Source entity_id"},
					"to_id":      map[string]any{"type": "string", "description": "Target entity_id"},
					"rel_type":   map[string]any{"type": "string", "description": "Relationship type (e.g., 'AUTHORED', 'COVERS')"},
					"properties": map[string]any{"type": "object", "description": "Optional relationship properties"},
				},
				"required": []string{"from_id", "to_id", "rel_type"},
			}),
		),
		mcp.WithString(
			"environment",
			mcp.Description("Target environment"),
			mcp.Enum("staging", "production"),
			mcp.DefaultString("staging"),
		),
		mcp.WithTitleAnnotation("Add Knowledge Relationships"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, err := auth.RequireToken(ctx)
		if err != nil {
			return nil, err
		}
		projectCode, err := req.RequireString("project_code")
		if err != nil {
			return nil, err
		}

		relationships, err := parseRelationships(req, deps.Logger)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		created, err := deps.Graph.BulkCreateRelationships(ctx, projectCode, targetEnvironment(req), token, relationships)
		if err != nil {
			deps.Logger.Debug("bulk relationship write rejected",
				zap.String("project_code", projectCode),
				zap.String("error", logging.SanitizeError(err)))
			return NewErrorResult("bulk_write_failed", logging.SanitizeError(err)), nil
		}

		total := 0
		for _, n := range created {
			total += n
		}
		return toolResultJSON(map[string]any{
			"created":       created,
			"total_created": total,
			"message":       fmt.Sprintf("Created %d relationships across %d types", total, len(created)),
		})
	})
}

// parseEntities extracts and validates the entities array from the request.
func parseEntities(req mcp.CallToolRequest, logger *zap.Logger) ([]graph.EntityInput, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid request arguments")
	}

	raw, err := extractArrayParam(args, "entities", logger)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("'entities' must be an array")
	}

	entities := make([]graph.EntityInput, 0, len(raw))
	for i, item := range raw {
		entityMap, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entity at index %d must be an object", i)
		}

		entityID, ok := entityMap["entity_id"].(string)
		if !ok || trimString(entityID) == "" {
			return nil, fmt.Errorf("entity at index %d: 'entity_id' is required and must be a non-empty string", i)
		}
		entityType, ok := entityMap["entity_type"].(string)
		if !ok || trimString(entityType) == "" {
			return nil, fmt.Errorf("entity at index %d: 'entity_type' is required and must be a non-empty string", i)
		}
		properties, ok := entityMap["properties"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entity at index %d: 'properties' is required and must be an object", i)
		}

		entities = append(entities, graph.EntityInput{
			EntityID:   trimString(entityID),
			EntityType: trimString(entityType),
			Properties: properties,
		})
	}
	return entities, nil
}

// parseRelationships extracts and validates the relationships array from the
// request. Properties are optional.
func parseRelationships(req mcp.CallToolRequest, logger *zap.Logger) ([]graph.RelationshipInput, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid request arguments")
	}

	raw, err := extractArrayParam(args, "relationships", logger)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("'relationships' must be an array")
	}

	relationships := make([]graph.RelationshipInput, 0, len(raw))
	for i, item := range raw {
		relMap, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("relationship at index %d must be an object", i)
		}

		fromID, ok := relMap["from_id"].(string)
		if !ok || trimString(fromID) == "" {
			return nil, fmt.Errorf("relationship at index %d: 'from_id' is required and must be a non-empty string", i)
		}
		toID, ok := relMap["to_id"].(string)
		if !ok || trimString(toID) == "" {
			return nil, fmt.Errorf("relationship at index %d: 'to_id' is required and must be a non-empty string", i)
		}
		relType, ok := relMap["rel_type"].(string)
		if !ok || trimString(relType) == "" {
			return nil, fmt.Errorf("relationship at index %d: 'rel_type' is required and must be a non-empty string", i)
		}

		rel := graph.RelationshipInput{
			FromID:  trimString(fromID),
			ToID:    trimString(toID),
			RelType: trimString(relType),
		}
		if properties, ok := relMap["properties"].(map[string]any); ok {
			rel.Properties = properties
		}
		relationships = append(relationships, rel)
	}
	return relationships, nil
}
