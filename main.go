package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/config"
	"github.com/graforest-inc/graforest-mcp/pkg/graph"
	"github.com/graforest-inc/graforest-mcp/pkg/handlers"
	"github.com/graforest-inc/graforest-mcp/pkg/mcp"
	mcpauth "github.com/graforest-inc/graforest-mcp/pkg/mcp/auth"
	"github.com/graforest-inc/graforest-mcp/pkg/mcp/tools"
	"github.com/graforest-inc/graforest-mcp/pkg/scrape"
)

// Version is set at build time via ldflags
var Version = "dev"

// serverInstructions is advertised to MCP clients at initialize time. It
// teaches the calling agent the 3-call ingestion workflow so it does not
// round-trip one node at a time.
const serverInstructions = `Graforest MCP Server: Knowledge Graph Data Operations

Store, search, and explore Knowledge Graphs. NO AI inside: YOU are the intelligence.

FAST INGESTION (recommended, 3 tool calls):
1. ingest_text_content(project_code, text) returns schema + extraction instructions
2. Extract ALL entities and relationships from the text in one pass
3. add_knowledge_nodes(project_code, entities) bulk creates all nodes
4. add_knowledge_relationships(project_code, relationships) bulk creates all edges

EXPLORATION:
- search_knowledge_graph: full-text search across all properties
- traverse_knowledge_graph: walk connections from a node
- list_knowledge_entities / get_knowledge_entity: read data

MANAGEMENT:
- list_knowledge_projects: find your graph
- create_knowledge_project: provision a new graph
- get_knowledge_schema: see entity types and fields

13 tools: 3 provisioning + 2 data write + 6 read + 1 ingestion + 1 utility`

func main() {
	// .env is optional; deployed environments configure via real env vars.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Gateway: %s", cfg.Gateway.URL)
	log.Printf("  Graph host: %s", cfg.Graph.Host)
	log.Printf("  Service key configured: %v", cfg.Gateway.ServiceKey != "")

	graphClient := graph.NewClient(cfg.Graph, logger)
	fetcher := scrape.NewFetcher()

	mcpServer := mcp.NewServer("graforest", cfg.Version, serverInstructions, logger)
	tools.RegisterAll(mcpServer.MCP(), &tools.ToolDeps{
		Graph:         graphClient,
		GatewayConfig: cfg.Gateway,
		Fetcher:       fetcher,
		Logger:        logger,
	})

	keyCache := auth.NewKeyCache(auth.DefaultKeyCacheSize)
	authMiddleware := mcpauth.NewMiddleware(keyCache, logger)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, logger)
	mcpHandler := handlers.NewMCPHandler(mcpServer, logger)
	mux := handlers.NewMux(healthHandler, mcpHandler, authMiddleware, logger)

	addr := cfg.BindAddr + ":" + cfg.Port
	log.Printf("Starting graforest-mcp on %s (version: %s)", addr, cfg.Version)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// newLogger builds a production JSON logger everywhere except local
// development, where human-readable console output is more useful.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
