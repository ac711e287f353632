package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/config"
)

// rewriteTransport redirects requests to the test server while preserving the
// originally resolved host, so handlers can assert on endpoint resolution.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Host = req.URL.Host
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type recordedRequest struct {
	Method string
	Host   string
	Path   string
	Query  url.Values
	Body   map[string]any
	Auth   string
}

// testRecorder captures every request the client sends.
type testRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (rec *testRecorder) record(r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.requests = append(rec.requests, recordedRequest{
		Method: r.Method,
		Host:   r.Host,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
		Auth:   r.Header.Get("Authorization"),
	})
}

func (rec *testRecorder) all() []recordedRequest {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]recordedRequest(nil), rec.requests...)
}

// newTestClient returns a Client whose requests are served by handler, plus
// the recorder of everything sent.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *testRecorder) {
	t.Helper()

	rec := &testRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := NewClient(config.GraphConfig{Host: "rationalbloks.com", RequestTimeoutSeconds: 5}, zap.NewNop())
	c.httpClient.Transport = rewriteTransport{target: target}
	return c, rec
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		code, env, want string
	}{
		{"My_Project", "production", "https://my-project.rationalbloks.com"},
		{"My_Project", "staging", "https://my-project-staging.rationalbloks.com"},
		{"ABC12345", "", "https://abc12345-staging.rationalbloks.com"},
		{"abc12345", "nonsense", "https://abc12345-staging.rationalbloks.com"},
		{"snake_case_code", "production", "https://snake-case-code.rationalbloks.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveBaseURL("rationalbloks.com", tt.code, tt.env))
	}
}

func TestGetSchema_ForwardsAndAuthenticates(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"entities": map[string]any{"topic": map[string]any{}}})
	})

	schema, err := c.GetSchema(context.Background(), "My_Project", "staging", "gf_sk_token")
	require.NoError(t, err)
	assert.Contains(t, schema, "entities")

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "my-project-staging.rationalbloks.com", reqs[0].Host)
	assert.Equal(t, "/schema", reqs[0].Path)
	assert.Equal(t, "Bearer gf_sk_token", reqs[0].Auth)
}

func TestGetStatistics_SurfacesRemoteStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.GetStatistics(context.Background(), "p", "staging", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearchText_TotalDefaultsToNodeCount(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"nodes": []map[string]any{
				{"entity_id": "go", "hierarchical_path": "Topic:TechnicalTopic:ProgrammingLanguage"},
				{"entity_id": "rust"},
			},
		})
	})

	result, err := c.SearchText(context.Background(), "proj", "staging", "tok", "languages")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, "languages", result.Query)
	require.Len(t, result.Nodes, 2)
	assert.Equal(t, "go", result.Nodes[0].ID)
	assert.Equal(t, []string{"ProgrammingLanguage"}, result.Nodes[0].Labels)
	assert.Equal(t, []string{"Unknown"}, result.Nodes[1].Labels)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v1/data/search/text", reqs[0].Path)
	assert.Equal(t, "languages", reqs[0].Body["query"])
}

func TestSearchText_RemoteCountAndQueryWin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"nodes": []map[string]any{{"entity_id": "go"}},
			"count": 17,
			"query": "normalized query",
		})
	})

	result, err := c.SearchText(context.Background(), "proj", "staging", "tok", "raw query")
	require.NoError(t, err)
	assert.Equal(t, 17, result.Total)
	assert.Equal(t, "normalized query", result.Query)
}

func TestTraverse_FiltersRelationshipsToReturnedNodes(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/data/traverse":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"connected_nodes": []map[string]any{
					{"entity_id": "article-1", "hierarchical_path": "Article"},
				},
				"max_depth": 2,
			})
		case "/api/v1/nodes/topic/machine-learning/relationships":
			writeJSON(t, w, http.StatusOK, []map[string]any{
				{"rel_id": 1, "rel_type": "COVERS", "from_id": "article-1", "to_id": "machine-learning"},
				{"rel_id": 2, "rel_type": "COVERS", "from_id": "article-9", "to_id": "machine-learning"},
			})
		default:
			http.NotFound(w, r)
		}
	})

	result, err := c.Traverse(context.Background(), "proj", "staging", "tok", "Topic", "machine-learning", 3, "both")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Depth)
	require.Len(t, result.Nodes, 1)
	require.Len(t, result.Relationships, 1, "relationship to a node outside the result set must be dropped")
	assert.Equal(t, "article-1", result.Relationships[0].FromID)

	reqs := rec.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "topic", reqs[0].Body["start_entity_type"], "start type is lowercased")
	assert.Equal(t, "both", reqs[1].Query.Get("direction"))
	assert.Equal(t, "500", reqs[1].Query.Get("limit"))
}

func TestTraverse_RelationshipFetchFailureIsSwallowed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/data/traverse" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"connected_nodes": []map[string]any{{"entity_id": "n1"}},
			})
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	result, err := c.Traverse(context.Background(), "proj", "staging", "tok", "Topic", "start", 3, "both")
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 1)
	assert.Empty(t, result.Relationships)
	assert.Equal(t, 3, result.Depth, "depth falls back to the requested value")
}

func TestListEntities_PrefixesID(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"entity_id": "go", "name": "Go"},
			{"name": "missing id"},
		})
	})

	items, err := c.ListEntities(context.Background(), "proj", "staging", "tok", "Topic", 50, 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "go", items[0]["id"])
	assert.Equal(t, "", items[1]["id"])

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v1/nodes/topic/", reqs[0].Path)
	assert.Equal(t, "50", reqs[0].Query.Get("limit"))
	assert.Equal(t, "10", reqs[0].Query.Get("offset"))
}

func TestGetEntity_IDFallsBackToRequested(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"name": "Go"})
	})

	entity, err := c.GetEntity(context.Background(), "proj", "staging", "tok", "Topic", "go-lang")
	require.NoError(t, err)
	assert.Equal(t, "go-lang", entity["id"])
}

func TestGetEntity_UsesResponseEntityID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"entity_id": "canonical-id"})
	})

	entity, err := c.GetEntity(context.Background(), "proj", "staging", "tok", "Topic", "requested-id")
	require.NoError(t, err)
	assert.Equal(t, "canonical-id", entity["id"])
}

func TestListRelationships_Normalizes(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"rel_id": 5, "rel_type": "AUTHORED", "from_id": "a", "to_id": "b", "contribution": "lead"},
		})
	})

	rels, err := c.ListRelationships(context.Background(), "proj", "staging", "tok", "AUTHORED", 500, 0)
	require.NoError(t, err)

	require.Len(t, rels, 1)
	assert.Equal(t, "5", rels[0].ID)
	assert.Equal(t, "AUTHORED", rels[0].Type)
	assert.Equal(t, "lead", rels[0].Properties["contribution"])

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v1/relationships/authored/", reqs[0].Path)
}

func makeEntities(entityType string, n int) []EntityInput {
	entities := make([]EntityInput, 0, n)
	for i := 0; i < n; i++ {
		entities = append(entities, EntityInput{
			EntityID:   entityType + "-" + string(rune('a'+i%26)),
			EntityType: entityType,
			Properties: map[string]any{"n": i},
		})
	}
	return entities
}

func TestBulkCreateEntities_GroupsAndChunks(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Nodes []map[string]any `json:"nodes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		writeJSON(t, w, http.StatusCreated, map[string]any{"created": len(payload.Nodes)})
	})

	// 501 Topics and 2 Authors, Topic first: 2 chunks + 1 chunk.
	entities := append(makeEntities("Topic", 501), makeEntities("Author", 2)...)

	results, err := c.BulkCreateEntities(context.Background(), "proj", "staging", "tok", entities)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Topic": 501, "Author": 2}, results)

	reqs := rec.all()
	require.Len(t, reqs, 3, "501 Topics need two chunks, 2 Authors need one")
	assert.Equal(t, "/api/v1/data/bulk/nodes/topic", reqs[0].Path)
	assert.Equal(t, "/api/v1/data/bulk/nodes/topic", reqs[1].Path)
	assert.Equal(t, "/api/v1/data/bulk/nodes/author", reqs[2].Path, "groups processed in first-seen order")

	firstChunk := reqs[0].Body["nodes"].([]any)
	secondChunk := reqs[1].Body["nodes"].([]any)
	assert.Len(t, firstChunk, 500)
	assert.Len(t, secondChunk, 1)

	node := firstChunk[0].(map[string]any)
	assert.Contains(t, node, "entity_id")
	assert.Contains(t, node, "data")
}

func TestBulkCreateEntities_FirstSeenOrderNotSorted(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	entities := []EntityInput{
		{EntityID: "z1", EntityType: "Zebra"},
		{EntityID: "a1", EntityType: "Aardvark"},
		{EntityID: "z2", EntityType: "Zebra"},
	}

	_, err := c.BulkCreateEntities(context.Background(), "proj", "staging", "tok", entities)
	require.NoError(t, err)

	reqs := rec.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/v1/data/bulk/nodes/zebra", reqs[0].Path)
	assert.Equal(t, "/api/v1/data/bulk/nodes/aardvark", reqs[1].Path)
}

func TestBulkCreateEntities_CreatedDefaultsToBatchSize(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Remote reports no created count.
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})

	results, err := c.BulkCreateEntities(context.Background(), "proj", "staging", "tok", makeEntities("Topic", 3))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Topic": 3}, results)
}

func TestBulkCreateEntities_FailFastDiscardsPartialTotals(t *testing.T) {
	var calls int
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "schema violation", http.StatusUnprocessableEntity)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"created": 500})
	})

	// Three chunks would be needed; the second fails.
	results, err := c.BulkCreateEntities(context.Background(), "proj", "staging", "tok", makeEntities("Topic", 1001))
	require.Error(t, err)
	assert.Nil(t, results, "no partial per-type totals on failure")
	assert.Contains(t, err.Error(), "bulk create Topic failed")
	assert.Contains(t, err.Error(), "422")
	assert.Len(t, rec.all(), 2, "no chunk is attempted after a failure")
}

func TestBulkCreateRelationships_PayloadAndGrouping(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Relationships []map[string]any `json:"relationships"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		writeJSON(t, w, http.StatusCreated, map[string]any{"created": len(payload.Relationships)})
	})

	rels := []RelationshipInput{
		{FromID: "author-1", ToID: "article-1", RelType: "AUTHORED", Properties: map[string]any{"contribution": "lead"}},
		{FromID: "article-1", ToID: "topic-1", RelType: "COVERS"},
		{FromID: "author-2", ToID: "article-2", RelType: "AUTHORED"},
	}

	results, err := c.BulkCreateRelationships(context.Background(), "proj", "staging", "tok", rels)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"AUTHORED": 2, "COVERS": 1}, results)

	reqs := rec.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/v1/data/bulk/relationships/authored", reqs[0].Path)
	assert.Equal(t, "/api/v1/data/bulk/relationships/covers", reqs[1].Path)

	authoredChunk := reqs[0].Body["relationships"].([]any)
	require.Len(t, authoredChunk, 2)
	withProps := authoredChunk[0].(map[string]any)
	withoutProps := authoredChunk[1].(map[string]any)
	assert.Contains(t, withProps, "data")
	assert.NotContains(t, withoutProps, "data", "empty properties omit the data field")
}

func TestBulkCreateRelationships_FailFast(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	rels := []RelationshipInput{
		{FromID: "a", ToID: "b", RelType: "COVERS"},
		{FromID: "c", ToID: "d", RelType: "AUTHORED"},
	}

	results, err := c.BulkCreateRelationships(context.Background(), "proj", "staging", "tok", rels)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "bulk create COVERS failed")
	assert.Len(t, rec.all(), 1, "AUTHORED group is never attempted")
}

