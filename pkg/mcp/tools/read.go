package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
)

// MaxTraverseDepth caps traversal depth regardless of what the caller asks for.
const MaxTraverseDepth = 5

// DefaultTraverseDepth applies when the caller omits max_depth.
const DefaultTraverseDepth = 3

// DefaultListLimit applies when the caller omits limit on list_knowledge_entities.
const DefaultListLimit = 50

// RegisterReadTools registers the data read MCP tools.
func RegisterReadTools(s *server.MCPServer, deps *ToolDeps) {
	registerSearchTool(s, deps)
	registerGetSchemaTool(s, deps)
	registerStatisticsTool(s, deps)
	registerTraverseTool(s, deps)
	registerListEntitiesTool(s, deps)
	registerGetEntityTool(s, deps)
}

// environmentParam is the shared environment argument on every read tool.
func environmentParam() mcp.ToolOption {
	return mcp.WithString(
		"environment",
		mcp.Enum("staging", "production"),
		mcp.DefaultString("staging"),
	)
}

// projectCodeParam is the shared project_code argument on every read tool.
func projectCodeParam() mcp.ToolOption {
	return mcp.WithString(
		"project_code",
		mcp.Required(),
		mcp.Description("Project code, from list_knowledge_projects"),
	)
}

func registerSearchTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"search_knowledge_graph",
		mcp.WithDescription(
			"Full-text search across all string properties in the knowledge graph. "+
				"Returns matching nodes with their types, properties, and relevance scores.",
		),
		projectCodeParam(),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Search text (e.g., 'machine learning', 'Python')"),
		),
		environmentParam(),
		mcp.WithTitleAnnotation("Search Knowledge Graph"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		result, err := deps.Graph.SearchText(ctx, projectCode, targetEnvironment(req), token, query)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		return toolResultJSON(result)
	})
}

func registerGetSchemaTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_knowledge_schema",
		mcp.WithDescription(
			"Get the full schema: entity types with fields, relationship types with "+
				"from/to mappings. CALL THIS FIRST before adding nodes or relationships "+
				"to understand what types and fields are available.",
		),
		projectCodeParam(),
		environmentParam(),
		mcp.WithTitleAnnotation("Get Knowledge Graph Schema"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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

		schema, err := deps.Graph.GetSchema(ctx, projectCode, targetEnvironment(req), token)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch schema: %w", err)
		}
		return toolResultJSON(schema)
	})
}

func registerStatisticsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_knowledge_statistics",
		mcp.WithDescription(
			"Get node/relationship counts broken down by type. "+
				"Useful for understanding the graph's size and composition.",
		),
		projectCodeParam(),
		environmentParam(),
		mcp.WithTitleAnnotation("Get Knowledge Graph Statistics"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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

		stats, err := deps.Graph.GetStatistics(ctx, projectCode, targetEnvironment(req), token)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch statistics: %w", err)
		}
		return toolResultJSON(stats)
	})
}

func registerTraverseTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"traverse_knowledge_graph",
		mcp.WithDescription(
			"Walk the graph from a starting entity, following relationships up to "+
				"a specified depth. Returns connected nodes and relationships.",
		),
		projectCodeParam(),
		mcp.WithString(
			"start_entity_type",
			mcp.Required(),
			mcp.Description("Entity type of the starting node (e.g., 'Topic')"),
		),
		mcp.WithString(
			"start_entity_id",
			mcp.Required(),
			mcp.Description("Entity ID of the starting node"),
		),
		mcp.WithNumber(
			"max_depth",
			mcp.Description(fmt.Sprintf("Maximum traversal depth (default %d, max %d)", DefaultTraverseDepth, MaxTraverseDepth)),
			mcp.DefaultNumber(DefaultTraverseDepth),
		),
		mcp.WithString(
			"direction",
			mcp.Enum("outgoing", "incoming", "both"),
			mcp.DefaultString("both"),
		),
		environmentParam(),
		mcp.WithTitleAnnotation("Traverse Knowledge Graph"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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
		startType, err := req.RequireString("start_entity_type")
		if err != nil {
			return nil, err
		}
		startID, err := req.RequireString("start_entity_id")
		if err != nil {
			return nil, err
		}

		maxDepth := getOptionalInt(req, "max_depth", DefaultTraverseDepth)
		if maxDepth > MaxTraverseDepth {
			maxDepth = MaxTraverseDepth
		}
		direction := getOptionalString(req, "direction")
		if direction == "" {
			direction = "both"
		}

		result, err := deps.Graph.Traverse(ctx, projectCode, targetEnvironment(req), token, startType, startID, maxDepth, direction)
		if err != nil {
			return nil, fmt.Errorf("traversal failed: %w", err)
		}
		return toolResultJSON(result)
	})
}

func registerListEntitiesTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_knowledge_entities",
		mcp.WithDescription(
			"List entities of a specific type. "+
				"Use get_knowledge_schema first to see available entity types.",
		),
		projectCodeParam(),
		mcp.WithString(
			"entity_type",
			mcp.Required(),
			mcp.Description("Entity type to list (e.g., 'Topic', 'Article')"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description(fmt.Sprintf("Max results (default %d)", DefaultListLimit)),
			mcp.DefaultNumber(DefaultListLimit),
		),
		mcp.WithNumber(
			"offset",
			mcp.Description("Offset for pagination"),
			mcp.DefaultNumber(0),
		),
		environmentParam(),
		mcp.WithTitleAnnotation("List Knowledge Entities"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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
		entityType, err := req.RequireString("entity_type")
		if err != nil {
			return nil, err
		}

		limit := getOptionalInt(req, "limit", DefaultListLimit)
		offset := getOptionalInt(req, "offset", 0)

		entities, err := deps.Graph.ListEntities(ctx, projectCode, targetEnvironment(req), token, entityType, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list entities: %w", err)
		}
		return toolResultJSON(map[string]any{
			"entities": entities,
			"count":    len(entities),
		})
	})
}

func registerGetEntityTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_knowledge_entity",
		mcp.WithDescription("Get a single entity by type and ID, with all properties."),
		projectCodeParam(),
		mcp.WithString(
			"entity_type",
			mcp.Required(),
			mcp.Description("Entity type (e.g., 'Topic', 'Article')"),
		),
		mcp.WithString(
			"entity_id",
			mcp.Required(),
			mcp.Description("Entity ID"),
		),
		environmentParam(),
		mcp.WithTitleAnnotation("Get Knowledge Entity"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
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
		entityType, err := req.RequireString("entity_type")
		if err != nil {
			return nil, err
		}
		entityID, err := req.RequireString("entity_id")
		if err != nil {
			return nil, err
		}

		entity, err := deps.Graph.GetEntity(ctx, projectCode, targetEnvironment(req), token, entityType, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to get entity: %w", err)
		}
		return toolResultJSON(entity)
	})
}
