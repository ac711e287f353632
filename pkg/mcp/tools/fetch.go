package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/graforest-inc/graforest-mcp/pkg/logging"
)

// RegisterFetchTools registers the URL fetch utility tool.
func RegisterFetchTools(s *server.MCPServer, deps *ToolDeps) {
	registerFetchURLTool(s, deps)
}

func registerFetchURLTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"fetch_url_content",
		mcp.WithDescription(
			"Scrape a URL and extract clean text content. Returns the text for "+
				"the LLM to read, extract entities from, and then call "+
				"add_knowledge_nodes/relationships. Also returns metadata (title, author, date).",
		),
		mcp.WithString(
			"url",
			mcp.Required(),
			mcp.Description("URL to scrape"),
		),
		mcp.WithTitleAnnotation("Fetch URL Content"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawURL, err := req.RequireString("url")
		if err != nil {
			return nil, err
		}

		result, err := deps.Fetcher.Fetch(ctx, rawURL)
		if err != nil {
			// Fetch failures are actionable: the caller can fix the URL or retry.
			return NewErrorResult("fetch_failed", logging.SanitizeError(err)), nil
		}
		return toolResultJSON(result)
	})
}
