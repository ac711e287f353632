package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/gateway"
	"github.com/graforest-inc/graforest-mcp/pkg/logging"
	"github.com/graforest-inc/graforest-mcp/pkg/scrape"
)

// MinIngestLength is the minimum trimmed length accepted by ingest_text_content.
const MinIngestLength = 50

// RegisterIngestTools registers the batch ingestion MCP tool.
func RegisterIngestTools(s *server.MCPServer, deps *ToolDeps) {
	registerIngestTextTool(s, deps)
}

func registerIngestTextTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"ingest_text_content",
		mcp.WithDescription(
			"BATCH INGESTION, the fast way to populate a knowledge graph.\n\n"+
				"Provide a large block of text (up to 500k chars) and the project code. "+
				"This tool fetches the graph schema and returns structured extraction "+
				"instructions. Then call add_knowledge_nodes and add_knowledge_relationships "+
				"with the extracted data.\n\n"+
				"3-CALL WORKFLOW:\n"+
				"  1. ingest_text_content(project_code, text) -> schema + instructions\n"+
				"  2. add_knowledge_nodes(project_code, entities) -> bulk create nodes\n"+
				"  3. add_knowledge_relationships(project_code, relationships) -> bulk create edges\n\n"+
				"This replaces per-entity approach. Extract EVERYTHING from the text "+
				"in one pass, then write it all in two bulk calls.",
		),
		mcp.WithString(
			"project_code",
			mcp.Required(),
			mcp.Description("Project code (e.g., 'abc12345'), from list_knowledge_projects"),
		),
		mcp.WithString(
			"text_content",
			mcp.Required(),
			mcp.Description(
				"The full text to extract knowledge from (up to 500k chars). "+
					"Can be a book chapter, article, lecture notes, etc.",
			),
		),
		mcp.WithString(
			"source_title",
			mcp.Description("Optional title/name of the source material"),
		),
		mcp.WithString(
			"source_url",
			mcp.Description("Optional URL of the source material"),
		),
		mcp.WithString(
			"environment",
			mcp.Description("Target environment"),
			mcp.Enum("staging", "production"),
			mcp.DefaultString("staging"),
		),
		mcp.WithTitleAnnotation("Ingest Text Content"),
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
		text, err := req.RequireString("text_content")
		if err != nil {
			return nil, err
		}

		if len(trimString(text)) < MinIngestLength {
			return NewErrorResult("content_too_short",
				fmt.Sprintf("text content too short, provide at least %d characters", MinIngestLength)), nil
		}
		if len(text) > scrape.MaxContentLength {
			return NewErrorResultWithDetails("content_too_large",
				fmt.Sprintf("text content too large (%d chars), maximum is %d chars; "+
					"split into smaller chunks and call ingest_text_content multiple times",
					len(text), scrape.MaxContentLength),
				map[string]any{
					"char_count": len(text),
					"max_chars":  scrape.MaxContentLength,
				}), nil
		}

		env := targetEnvironment(req)
		schema, err := deps.Graph.GetSchema(ctx, projectCode, env, token)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch schema: %w", err)
		}

		entityTypes := extractEntityTypes(schema)
		relationshipTypes := extractRelationshipTypes(schema)
		fieldGuide := deps.fetchFieldGuide(ctx, projectCode)

		var fieldDetails any = "Use get_knowledge_schema for field details"
		if len(fieldGuide) > 0 {
			fieldDetails = fieldGuide
		}

		charCount := len(text)
		wordCount := len(strings.Fields(text))

		return toolResultJSON(map[string]any{
			"status":       "ready_for_extraction",
			"project_code": projectCode,
			"source": map[string]any{
				"title":            getOptionalString(req, "source_title"),
				"url":              getOptionalString(req, "source_url"),
				"char_count":       charCount,
				"word_count":       wordCount,
				"estimated_tokens": charCount / 4,
			},
			"schema": map[string]any{
				"entity_types":       entityTypes,
				"relationship_types": relationshipTypes,
				"field_details":      fieldDetails,
			},
			"extraction_instructions": extractionInstructions(entityTypes, relationshipTypes),
		})
	})
}

// extractEntityTypes builds the entity type guide from a deployed graph schema.
func extractEntityTypes(schema map[string]any) map[string]any {
	entityTypes := make(map[string]any)
	entities, _ := schema["entities"].(map[string]any)
	for key, val := range entities {
		path := key
		if info, ok := val.(map[string]any); ok {
			if p, ok := info["path"].(string); ok && p != "" {
				path = p
			}
		}
		entityTypes[key] = map[string]any{"path": path}
	}
	return entityTypes
}

// extractRelationshipTypes builds the relationship type guide from a deployed
// graph schema.
func extractRelationshipTypes(schema map[string]any) map[string]any {
	relationshipTypes := make(map[string]any)
	relationships, _ := schema["relationships"].(map[string]any)
	for key, val := range relationships {
		typeName := strings.ToUpper(key)
		fromPath := ""
		toPath := ""
		if info, ok := val.(map[string]any); ok {
			if t, ok := info["type_name"].(string); ok && t != "" {
				typeName = t
			}
			fromPath, _ = info["from_path"].(string)
			toPath, _ = info["to_path"].(string)
		}
		relationshipTypes[key] = map[string]any{
			"type_name": typeName,
			"from":      fromPath,
			"to":        toPath,
		}
	}
	return relationshipTypes
}

// fetchFieldGuide fetches the project's full schema definition from the
// gateway and flattens it into per-type field summaries. Best effort: any
// failure (no service key, unknown project, gateway error) returns an empty
// guide and the caller falls back to a pointer at get_knowledge_schema.
func (d *ToolDeps) fetchFieldGuide(ctx context.Context, projectCode string) map[string]any {
	fieldGuide := make(map[string]any)

	gw, err := d.newGatewayClient()
	if err != nil {
		d.Logger.Debug("could not fetch full schema for extraction guide",
			zap.String("error", logging.SanitizeError(err)))
		return fieldGuide
	}
	defer gw.Close()

	projects, err := gw.ListProjects(ctx)
	if err != nil {
		d.Logger.Debug("could not fetch full schema for extraction guide",
			zap.String("error", logging.SanitizeError(err)))
		return fieldGuide
	}

	var projectID string
	for _, p := range projects {
		if code, _ := p["project_code"].(string); code == projectCode {
			projectID = gateway.ProjectID(p)
			break
		}
	}
	if projectID == "" {
		return fieldGuide
	}

	fullSchema, err := gw.GetGraphSchema(ctx, projectID)
	if err != nil {
		d.Logger.Debug("could not fetch full schema for extraction guide",
			zap.String("project_id", projectID),
			zap.String("error", logging.SanitizeError(err)))
		return fieldGuide
	}

	if nodes, ok := fullSchema["nodes"].(map[string]any); ok {
		extractFieldGuide(nodes, fieldGuide)
	}
	return fieldGuide
}

// extractFieldGuide recursively flattens field info from the full graph
// schema. Nested entity types (subtypes declared inside their parent) are
// walked too, each landing as its own lowercased key.
func extractFieldGuide(nodes map[string]any, fieldGuide map[string]any) {
	for key, val := range nodes {
		node, ok := val.(map[string]any)
		if !ok {
			continue
		}
		schemaDef, ok := node["schema"].(map[string]any)
		if !ok {
			continue
		}

		fields := make(map[string]any, len(schemaDef))
		for fname, fdef := range schemaDef {
			ftype := "string"
			required := false
			if fd, ok := fdef.(map[string]any); ok {
				if t, ok := fd["type"].(string); ok && t != "" {
					ftype = t
				}
				required, _ = fd["required"].(bool)
			}
			if required {
				fields[fname] = ftype + " (REQUIRED)"
			} else {
				fields[fname] = ftype
			}
		}
		fieldGuide[strings.ToLower(key)] = fields

		for nestedKey, nestedVal := range node {
			nested, ok := nestedVal.(map[string]any)
			if !ok {
				continue
			}
			if _, hasSchema := nested["schema"]; hasSchema {
				extractFieldGuide(map[string]any{nestedKey: nested}, fieldGuide)
			}
		}
	}
}

// extractionInstructions renders the instruction text returned to the caller.
// Type lists are sorted so the output is stable across calls.
func extractionInstructions(entityTypes, relationshipTypes map[string]any) string {
	return fmt.Sprintf(
		"Extract ALL entities and relationships from the provided text.\n\n"+
			"ENTITY TYPES available: %s\n"+
			"RELATIONSHIP TYPES available: %s\n\n"+
			"RULES:\n"+
			"1. Use kebab-case entity_ids (e.g., 'machine-learning', 'iron-fe')\n"+
			"2. Entity types must match the schema keys exactly (lowercase)\n"+
			"3. Include ALL required fields for each entity type\n"+
			"4. Extract as many entities as the text supports, be thorough\n"+
			"5. Create relationships between related entities\n"+
			"6. Relationship from_id and to_id must match entity_ids you created\n\n"+
			"NEXT STEPS:\n"+
			"1. Process the text and extract entities + relationships\n"+
			"2. Call add_knowledge_nodes with ALL extracted entities\n"+
			"3. Call add_knowledge_relationships with ALL extracted relationships",
		strings.Join(sortedKeys(entityTypes), ", "),
		strings.Join(sortedKeys(relationshipTypes), ", "),
	)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
