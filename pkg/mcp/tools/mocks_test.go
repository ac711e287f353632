package tools

import (
	"context"
	"fmt"

	"github.com/graforest-inc/graforest-mcp/pkg/graph"
)

// fakeGraph is a scriptable GraphAPI implementation. Each function field
// defaults to failing loudly so tests only stub what they exercise.
type fakeGraph struct {
	getSchemaFunc               func(ctx context.Context, projectCode, environment, token string) (map[string]any, error)
	getStatisticsFunc           func(ctx context.Context, projectCode, environment, token string) (map[string]any, error)
	searchTextFunc              func(ctx context.Context, projectCode, environment, token, query string) (*graph.SearchResult, error)
	traverseFunc                func(ctx context.Context, projectCode, environment, token, startEntityType, startEntityID string, maxDepth int, direction string) (*graph.TraverseResult, error)
	listEntitiesFunc            func(ctx context.Context, projectCode, environment, token, entityType string, limit, offset int) ([]map[string]any, error)
	getEntityFunc               func(ctx context.Context, projectCode, environment, token, entityType, entityID string) (map[string]any, error)
	bulkCreateEntitiesFunc      func(ctx context.Context, projectCode, environment, token string, entities []graph.EntityInput) (map[string]int, error)
	bulkCreateRelationshipsFunc func(ctx context.Context, projectCode, environment, token string, relationships []graph.RelationshipInput) (map[string]int, error)
}

func (f *fakeGraph) GetSchema(ctx context.Context, projectCode, environment, token string) (map[string]any, error) {
	if f.getSchemaFunc == nil {
		return nil, fmt.Errorf("unexpected GetSchema call")
	}
	return f.getSchemaFunc(ctx, projectCode, environment, token)
}

func (f *fakeGraph) GetStatistics(ctx context.Context, projectCode, environment, token string) (map[string]any, error) {
	if f.getStatisticsFunc == nil {
		return nil, fmt.Errorf("unexpected GetStatistics call")
	}
	return f.getStatisticsFunc(ctx, projectCode, environment, token)
}

func (f *fakeGraph) SearchText(ctx context.Context, projectCode, environment, token, query string) (*graph.SearchResult, error) {
	if f.searchTextFunc == nil {
		return nil, fmt.Errorf("unexpected SearchText call")
	}
	return f.searchTextFunc(ctx, projectCode, environment, token, query)
}

func (f *fakeGraph) Traverse(ctx context.Context, projectCode, environment, token string, startEntityType, startEntityID string, maxDepth int, direction string) (*graph.TraverseResult, error) {
	if f.traverseFunc == nil {
		return nil, fmt.Errorf("unexpected Traverse call")
	}
	return f.traverseFunc(ctx, projectCode, environment, token, startEntityType, startEntityID, maxDepth, direction)
}

func (f *fakeGraph) ListEntities(ctx context.Context, projectCode, environment, token string, entityType string, limit, offset int) ([]map[string]any, error) {
	if f.listEntitiesFunc == nil {
		return nil, fmt.Errorf("unexpected ListEntities call")
	}
	return f.listEntitiesFunc(ctx, projectCode, environment, token, entityType, limit, offset)
}

func (f *fakeGraph) GetEntity(ctx context.Context, projectCode, environment, token string, entityType, entityID string) (map[string]any, error) {
	if f.getEntityFunc == nil {
		return nil, fmt.Errorf("unexpected GetEntity call")
	}
	return f.getEntityFunc(ctx, projectCode, environment, token, entityType, entityID)
}

func (f *fakeGraph) BulkCreateEntities(ctx context.Context, projectCode, environment, token string, entities []graph.EntityInput) (map[string]int, error) {
	if f.bulkCreateEntitiesFunc == nil {
		return nil, fmt.Errorf("unexpected BulkCreateEntities call")
	}
	return f.bulkCreateEntitiesFunc(ctx, projectCode, environment, token, entities)
}

func (f *fakeGraph) BulkCreateRelationships(ctx context.Context, projectCode, environment, token string, relationships []graph.RelationshipInput) (map[string]int, error) {
	if f.bulkCreateRelationshipsFunc == nil {
		return nil, fmt.Errorf("unexpected BulkCreateRelationships call")
	}
	return f.bulkCreateRelationshipsFunc(ctx, projectCode, environment, token, relationships)
}
