// Package tools provides MCP tool implementations for graforest-mcp.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/config"
	"github.com/graforest-inc/graforest-mcp/pkg/gateway"
	"github.com/graforest-inc/graforest-mcp/pkg/graph"
	"github.com/graforest-inc/graforest-mcp/pkg/scrape"
)

// GraphAPI is the surface of the graph data client used by the tools.
// Satisfied by *graph.Client.
type GraphAPI interface {
	GetSchema(ctx context.Context, projectCode, environment, token string) (map[string]any, error)
	GetStatistics(ctx context.Context, projectCode, environment, token string) (map[string]any, error)
	SearchText(ctx context.Context, projectCode, environment, token, query string) (*graph.SearchResult, error)
	Traverse(ctx context.Context, projectCode, environment, token string, startEntityType, startEntityID string, maxDepth int, direction string) (*graph.TraverseResult, error)
	ListEntities(ctx context.Context, projectCode, environment, token string, entityType string, limit, offset int) ([]map[string]any, error)
	GetEntity(ctx context.Context, projectCode, environment, token string, entityType, entityID string) (map[string]any, error)
	BulkCreateEntities(ctx context.Context, projectCode, environment, token string, entities []graph.EntityInput) (map[string]int, error)
	BulkCreateRelationships(ctx context.Context, projectCode, environment, token string, relationships []graph.RelationshipInput) (map[string]int, error)
}

// ToolDeps contains shared dependencies for the knowledge graph tools.
//
// The graph client is shared for the life of the process. Gateway clients are
// created per invocation from GatewayConfig and closed when the call returns,
// so a missing service key only fails the provisioning tools that need it.
type ToolDeps struct {
	Graph         GraphAPI
	GatewayConfig config.GatewayConfig
	Fetcher       *scrape.Fetcher
	Logger        *zap.Logger
}

func (d *ToolDeps) newGatewayClient() (*gateway.Client, error) {
	return gateway.NewClient(d.GatewayConfig, d.Logger)
}

// RegisterAll registers the 13 knowledge graph tools and 2 prompts.
func RegisterAll(s *server.MCPServer, deps *ToolDeps) {
	RegisterProjectTools(s, deps)
	RegisterWriteTools(s, deps)
	RegisterReadTools(s, deps)
	RegisterIngestTools(s, deps)
	RegisterFetchTools(s, deps)
	RegisterPrompts(s, deps)
}
