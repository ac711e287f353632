package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/config"
	"github.com/graforest-inc/graforest-mcp/pkg/logging"
)

// MaxBulkSize is the maximum number of items sent in one bulk write call.
// Larger inputs are split into chunks of this size, never rejected.
const MaxBulkSize = 500

// EntityInput is one entity in a bulk create request.
type EntityInput struct {
	EntityID   string         `json:"entity_id"`
	EntityType string         `json:"entity_type"`
	Properties map[string]any `json:"properties"`
}

// RelationshipInput is one relationship in a bulk create request.
type RelationshipInput struct {
	FromID     string         `json:"from_id"`
	ToID       string         `json:"to_id"`
	RelType    string         `json:"rel_type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// SearchResult is the normalized shape of a full-text search response.
type SearchResult struct {
	Nodes []Node `json:"nodes"`
	Total int    `json:"total"`
	Query string `json:"query"`
}

// TraverseResult is the normalized shape of a traversal response.
type TraverseResult struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Depth         int            `json:"depth"`
}

// Client issues read and write calls against deployed Graph APIs.
//
// One Client is shared for the life of the process. Each call resolves its
// endpoint from (projectCode, environment) and authenticates with the caller's
// bearer token, so a single Client serves every project.
type Client struct {
	httpClient *http.Client
	host       string
	logger     *zap.Logger
}

// NewClient creates a Graph API client.
func NewClient(cfg config.GraphConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		host:   cfg.Host,
		logger: logger.Named("graph"),
	}
}

// ResolveBaseURL maps (projectCode, environment) to a Graph API base URL.
// The project code is lowercased with underscores replaced by hyphens.
// Environment "production" selects the apex subdomain; every other value,
// including the empty string, selects staging. This mapping is an external
// contract and must stay bit-exact.
func ResolveBaseURL(host, projectCode, environment string) string {
	code := strings.ReplaceAll(strings.ToLower(projectCode), "_", "-")
	if environment == "production" {
		return fmt.Sprintf("https://%s.%s", code, host)
	}
	return fmt.Sprintf("https://%s-staging.%s", code, host)
}

func (c *Client) baseURL(projectCode, environment string) string {
	return ResolveBaseURL(c.host, projectCode, environment)
}

// GetSchema fetches the deployed graph's schema.
func (c *Client) GetSchema(ctx context.Context, projectCode, environment, token string) (map[string]any, error) {
	var out map[string]any
	endpoint := c.baseURL(projectCode, environment) + "/schema"
	if err := c.getJSON(ctx, endpoint, nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStatistics fetches node and relationship counts by type.
func (c *Client) GetStatistics(ctx context.Context, projectCode, environment, token string) (map[string]any, error) {
	var out map[string]any
	endpoint := c.baseURL(projectCode, environment) + "/api/v1/data/stats"
	if err := c.getJSON(ctx, endpoint, nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchText runs a full-text search across the graph's string properties.
// Total defaults to the node count when the remote omits it; the query is
// echoed back from the request when the remote omits that too.
func (c *Client) SearchText(ctx context.Context, projectCode, environment, token, query string) (*SearchResult, error) {
	var resp struct {
		Nodes []map[string]any `json:"nodes"`
		Count *int             `json:"count"`
		Query *string          `json:"query"`
	}
	endpoint := c.baseURL(projectCode, environment) + "/api/v1/data/search/text"
	if err := c.postJSON(ctx, endpoint, token, map[string]any{"query": query}, &resp); err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(resp.Nodes))
	for _, n := range resp.Nodes {
		nodes = append(nodes, NormalizeNode(n))
	}

	result := &SearchResult{Nodes: nodes, Total: len(nodes), Query: query}
	if resp.Count != nil {
		result.Total = *resp.Count
	}
	if resp.Query != nil {
		result.Query = *resp.Query
	}
	return result, nil
}

// Traverse walks the graph from a starting entity. The primary call returns
// connected nodes; a second best-effort call fetches the start node's
// relationships and keeps those whose both endpoints are in the returned node
// set. Failure of the second call is logged and swallowed; traversal still
// succeeds with an empty relationship list.
func (c *Client) Traverse(
	ctx context.Context,
	projectCode, environment, token string,
	startEntityType, startEntityID string,
	maxDepth int,
	direction string,
) (*TraverseResult, error) {
	base := c.baseURL(projectCode, environment)

	var resp struct {
		ConnectedNodes []map[string]any `json:"connected_nodes"`
		MaxDepth       *int             `json:"max_depth"`
	}
	body := map[string]any{
		"start_entity_type": strings.ToLower(startEntityType),
		"start_entity_id":   startEntityID,
		"max_depth":         maxDepth,
		"direction":         direction,
	}
	if err := c.postJSON(ctx, base+"/api/v1/data/traverse", token, body, &resp); err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(resp.ConnectedNodes))
	for _, n := range resp.ConnectedNodes {
		nodes = append(nodes, NormalizeNode(n))
	}

	relationships := c.fetchTraverseRelationships(ctx, base, token, startEntityType, startEntityID, direction, nodes)

	depth := maxDepth
	if resp.MaxDepth != nil {
		depth = *resp.MaxDepth
	}
	return &TraverseResult{Nodes: nodes, Relationships: relationships, Depth: depth}, nil
}

// fetchTraverseRelationships is the best-effort enrichment step of Traverse.
// Any failure returns an empty list.
func (c *Client) fetchTraverseRelationships(
	ctx context.Context,
	base, token string,
	startEntityType, startEntityID, direction string,
	nodes []Node,
) []Relationship {
	relationships := make([]Relationship, 0)

	endpoint := fmt.Sprintf("%s/api/v1/nodes/%s/%s/relationships",
		base, strings.ToLower(startEntityType), url.PathEscape(startEntityID))
	params := url.Values{}
	params.Set("direction", direction)
	params.Set("limit", strconv.Itoa(MaxBulkSize))

	var raw []map[string]any
	if err := c.getJSON(ctx, endpoint, params, token, &raw); err != nil {
		c.logger.Debug("could not fetch relationships for traverse",
			zap.String("start_entity_id", startEntityID),
			zap.String("error", logging.SanitizeError(err)))
		return relationships
	}

	nodeIDs := make(map[string]struct{}, len(nodes)+1)
	for _, n := range nodes {
		nodeIDs[n.ID] = struct{}{}
	}
	nodeIDs[startEntityID] = struct{}{}

	for _, r := range raw {
		rel := NormalizeRelationship(r)
		if _, fromOK := nodeIDs[rel.FromID]; !fromOK {
			continue
		}
		if _, toOK := nodeIDs[rel.ToID]; !toOK {
			continue
		}
		relationships = append(relationships, rel)
	}
	return relationships
}

// ListEntities lists entities of one type with pagination. Each returned item
// is the raw record with an id field prepended from its entity_id.
func (c *Client) ListEntities(
	ctx context.Context,
	projectCode, environment, token string,
	entityType string,
	limit, offset int,
) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/v1/nodes/%s/",
		c.baseURL(projectCode, environment), strings.ToLower(entityType))
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var raw []map[string]any
	if err := c.getJSON(ctx, endpoint, params, token, &raw); err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		normalized := make(map[string]any, len(item)+1)
		for k, v := range item {
			normalized[k] = v
		}
		normalized["id"] = stringField(item, "entity_id")
		items = append(items, normalized)
	}
	return items, nil
}

// GetEntity fetches a single entity by type and id. The id field is set from
// the response's entity_id, falling back to the requested id.
func (c *Client) GetEntity(
	ctx context.Context,
	projectCode, environment, token string,
	entityType, entityID string,
) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/v1/nodes/%s/%s",
		c.baseURL(projectCode, environment), strings.ToLower(entityType), url.PathEscape(entityID))

	var data map[string]any
	if err := c.getJSON(ctx, endpoint, nil, token, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}

	if id := stringField(data, "entity_id"); id != "" {
		data["id"] = id
	} else {
		data["id"] = entityID
	}
	return data, nil
}

// ListRelationships lists relationships of one type with pagination, each
// normalized to the stable Relationship shape.
func (c *Client) ListRelationships(
	ctx context.Context,
	projectCode, environment, token string,
	relationshipType string,
	limit, offset int,
) ([]Relationship, error) {
	endpoint := fmt.Sprintf("%s/api/v1/relationships/%s/",
		c.baseURL(projectCode, environment), strings.ToLower(relationshipType))
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var raw []map[string]any
	if err := c.getJSON(ctx, endpoint, params, token, &raw); err != nil {
		return nil, err
	}

	rels := make([]Relationship, 0, len(raw))
	for _, r := range raw {
		rels = append(rels, NormalizeRelationship(r))
	}
	return rels, nil
}

// BulkCreateEntities creates entities grouped by entity_type, in chunks of at
// most MaxBulkSize per write call. Groups are processed in first-seen order
// and chunks are sent sequentially. The first non-200/201 response aborts the
// whole call: the caller gets either a complete per-type count map or an
// error, never both.
func (c *Client) BulkCreateEntities(
	ctx context.Context,
	projectCode, environment, token string,
	entities []EntityInput,
) (map[string]int, error) {
	base := c.baseURL(projectCode, environment)

	order, byType := groupEntitiesByType(entities)

	results := make(map[string]int, len(order))
	for _, entityType := range order {
		typeEntities := byType[entityType]
		apiType := strings.ToLower(entityType)
		created := 0

		for start := 0; start < len(typeEntities); start += MaxBulkSize {
			end := min(start+MaxBulkSize, len(typeEntities))
			batch := typeEntities[start:end]

			nodes := make([]map[string]any, 0, len(batch))
			for _, e := range batch {
				props := e.Properties
				if props == nil {
					props = map[string]any{}
				}
				nodes = append(nodes, map[string]any{
					"entity_id": e.EntityID,
					"data":      props,
				})
			}

			count, err := c.postBulkChunk(ctx, base+"/api/v1/data/bulk/nodes/"+apiType, token, map[string]any{"nodes": nodes}, len(batch))
			if err != nil {
				return nil, fmt.Errorf("bulk create %s failed: %w", entityType, err)
			}
			created += count
		}

		results[entityType] = created
		c.logger.Info("created entities",
			zap.String("entity_type", entityType),
			zap.Int("created", created),
			zap.Int("requested", len(typeEntities)))
	}
	return results, nil
}

// BulkCreateRelationships creates relationships grouped by rel_type, with the
// same chunking, ordering, and fail-fast behavior as BulkCreateEntities.
func (c *Client) BulkCreateRelationships(
	ctx context.Context,
	projectCode, environment, token string,
	relationships []RelationshipInput,
) (map[string]int, error) {
	base := c.baseURL(projectCode, environment)

	order, byType := groupRelationshipsByType(relationships)

	results := make(map[string]int, len(order))
	for _, relType := range order {
		typeRels := byType[relType]
		apiType := strings.ToLower(relType)
		created := 0

		for start := 0; start < len(typeRels); start += MaxBulkSize {
			end := min(start+MaxBulkSize, len(typeRels))
			batch := typeRels[start:end]

			rels := make([]map[string]any, 0, len(batch))
			for _, r := range batch {
				item := map[string]any{
					"from_id": r.FromID,
					"to_id":   r.ToID,
				}
				if len(r.Properties) > 0 {
					item["data"] = r.Properties
				}
				rels = append(rels, item)
			}

			count, err := c.postBulkChunk(ctx, base+"/api/v1/data/bulk/relationships/"+apiType, token, map[string]any{"relationships": rels}, len(batch))
			if err != nil {
				return nil, fmt.Errorf("bulk create %s failed: %w", relType, err)
			}
			created += count
		}

		results[relType] = created
		c.logger.Info("created relationships",
			zap.String("rel_type", relType),
			zap.Int("created", created),
			zap.Int("requested", len(typeRels)))
	}
	return results, nil
}

// postBulkChunk sends one bulk write chunk and returns its created count,
// assuming the full chunk succeeded when the remote omits the count.
func (c *Client) postBulkChunk(ctx context.Context, endpoint, token string, payload map[string]any, batchSize int) (int, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, endpoint, token, payload)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call Graph API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, logging.TruncateString(string(body), logging.MaxBodyLogLength))
	}

	var chunkResp struct {
		Created *int `json:"created"`
	}
	if err := json.Unmarshal(body, &chunkResp); err == nil && chunkResp.Created != nil {
		return *chunkResp.Created, nil
	}
	return batchSize, nil
}

// groupEntitiesByType buckets entities by entity_type, preserving the order
// in which each type was first seen.
func groupEntitiesByType(entities []EntityInput) ([]string, map[string][]EntityInput) {
	order := make([]string, 0)
	byType := make(map[string][]EntityInput)
	for _, e := range entities {
		if _, seen := byType[e.EntityType]; !seen {
			order = append(order, e.EntityType)
		}
		byType[e.EntityType] = append(byType[e.EntityType], e)
	}
	return order, byType
}

// groupRelationshipsByType buckets relationships by rel_type in first-seen order.
func groupRelationshipsByType(relationships []RelationshipInput) ([]string, map[string][]RelationshipInput) {
	order := make([]string, 0)
	byType := make(map[string][]RelationshipInput)
	for _, r := range relationships {
		if _, seen := byType[r.RelType]; !seen {
			order = append(order, r.RelType)
		}
		byType[r.RelType] = append(byType[r.RelType], r)
	}
	return order, byType
}

// getJSON issues an authenticated GET and decodes the JSON response.
// Failures are never retried here; callers own retry decisions for graph reads.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, token string, out any) error {
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	return c.doJSON(req, out)
}

// postJSON issues an authenticated POST with a JSON body and decodes the response.
func (c *Client) postJSON(ctx context.Context, endpoint, token string, body, out any) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, endpoint, token, body)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint, token string, body any) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON executes a request, failing on any non-2xx status with the status
// code and a truncated response body.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Graph API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Graph API returned status %d: %s",
			resp.StatusCode, logging.TruncateString(string(body), logging.MaxBodyLogLength))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
