package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/apperrors"
	"github.com/graforest-inc/graforest-mcp/pkg/gateway"
	"github.com/graforest-inc/graforest-mcp/pkg/logging"
)

// RegisterProjectTools registers the provisioning MCP tools.
func RegisterProjectTools(s *server.MCPServer, deps *ToolDeps) {
	registerCreateProjectTool(s, deps)
	registerListProjectsTool(s, deps)
	registerDeleteProjectTool(s, deps)
}

// registerCreateProjectTool adds create_knowledge_project, the full
// provisioning pipeline: create, deploy to staging, poll until ready.
func registerCreateProjectTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"create_knowledge_project",
		mcp.WithDescription(
			"Provision a new knowledge graph project. Creates a Neo4j graph database "+
				"with a knowledge-optimized schema (Topics, Articles, Authors, Concepts) "+
				"and deploys it to staging. May take 30-60 seconds.",
		),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("Project name (e.g., 'AI Research Papers')"),
		),
		mcp.WithString(
			"description",
			mcp.Description("Optional project description"),
		),
		mcp.WithTitleAnnotation("Create Knowledge Graph Project"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		name = trimString(name)
		if name == "" {
			return NewErrorResult("invalid_name", "project name cannot be empty"), nil
		}
		description := getOptionalString(req, "description")

		gw, err := deps.newGatewayClient()
		if err != nil {
			return nil, err
		}
		defer gw.Close()

		info, err := gw.Provision(ctx, name, description)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDeployFailed):
				return NewErrorResult("deploy_failed", logging.SanitizeError(err)), nil
			case errors.Is(err, apperrors.ErrDeployTimeout):
				return NewErrorResult("deploy_timeout", logging.SanitizeError(err)), nil
			}
			return nil, fmt.Errorf("failed to provision knowledge graph: %w", err)
		}

		return toolResultJSON(map[string]any{
			"project_id":    gateway.ProjectID(info),
			"project_code":  info["project_code"],
			"name":          info["name"],
			"status":        "deployed",
			"message":       "Knowledge graph created and deployed to staging",
			"graph_api_url": firstString(info, "staging_url", "graph_api_url"),
		})
	})
}

// registerListProjectsTool adds list_knowledge_projects. Relational projects
// on the same account are filtered out; records without a project_type are
// assumed to be graphs.
func registerListProjectsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_knowledge_projects",
		mcp.WithDescription(
			"List all graph projects. Shows project IDs, names, codes, and status.",
		),
		mcp.WithTitleAnnotation("List Knowledge Graph Projects"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		gw, err := deps.newGatewayClient()
		if err != nil {
			return nil, err
		}
		defer gw.Close()

		projects, err := gw.ListProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		graphProjects := make([]map[string]any, 0, len(projects))
		for _, p := range projects {
			if projectType, ok := p["project_type"].(string); ok && projectType == "relational" {
				continue
			}
			graphProjects = append(graphProjects, map[string]any{
				"project_id":   gateway.ProjectID(p),
				"name":         p["name"],
				"project_code": p["project_code"],
				"status":       p["status"],
				"created_at":   p["created_at"],
			})
		}

		return toolResultJSON(map[string]any{
			"projects": graphProjects,
			"count":    len(graphProjects),
		})
	})
}

// registerDeleteProjectTool adds delete_knowledge_project.
func registerDeleteProjectTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"delete_knowledge_project",
		mcp.WithDescription(
			"Delete a graph project and ALL its data. DESTRUCTIVE, cannot be undone.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project ID to delete (UUID)"),
		),
		mcp.WithTitleAnnotation("Delete Knowledge Graph Project"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}
		if _, err := uuid.Parse(projectID); err != nil {
			return NewErrorResult("invalid_project_id", "project_id must be a UUID"), nil
		}

		gw, err := deps.newGatewayClient()
		if err != nil {
			return nil, err
		}
		defer gw.Close()

		if err := gw.DeleteGraphProject(ctx, projectID); err != nil {
			return nil, fmt.Errorf("failed to delete project: %w", err)
		}
		deps.Logger.Info("deleted graph project", zap.String("project_id", projectID))

		return toolResultJSON(map[string]any{
			"project_id": projectID,
			"status":     "deleted",
			"message":    "Graph project and all data permanently deleted",
		})
	})
}
