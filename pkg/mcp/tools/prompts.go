package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterPrompts registers the ingest-content and explore-graph prompts.
func RegisterPrompts(s *server.MCPServer, deps *ToolDeps) {
	registerIngestPrompt(s)
	registerExplorePrompt(s)
}

func registerIngestPrompt(s *server.MCPServer) {
	prompt := mcp.NewPrompt(
		"ingest-content",
		mcp.WithPromptDescription(
			"Ingest text content into a knowledge graph using the 3-call workflow. "+
				"Extracts entities and relationships from the provided text.",
		),
		mcp.WithArgument(
			"project_code",
			mcp.ArgumentDescription("Project code for the target knowledge graph"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument(
			"text",
			mcp.ArgumentDescription("Text content to extract knowledge from"),
			mcp.RequiredArgument(),
		),
	)

	s.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		projectCode := req.Params.Arguments["project_code"]
		text := req.Params.Arguments["text"]

		message := fmt.Sprintf(
			"Ingest the following content into knowledge graph '%s'.\n\n"+
				"Use the 3-call workflow:\n"+
				"1. Call ingest_text_content with the text below\n"+
				"2. Extract ALL entities and relationships from it\n"+
				"3. Call add_knowledge_nodes with all entities\n"+
				"4. Call add_knowledge_relationships with all relationships\n\n"+
				"Be thorough, extract every entity and connection you can find.\n\n"+
				"---\n\n%s",
			projectCode, text)

		return mcp.NewGetPromptResult(
			"Ingest content into a knowledge graph",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(message)),
			},
		), nil
	})
}

func registerExplorePrompt(s *server.MCPServer) {
	prompt := mcp.NewPrompt(
		"explore-graph",
		mcp.WithPromptDescription(
			"Explore a knowledge graph: get statistics, search for concepts, "+
				"and traverse connections.",
		),
		mcp.WithArgument(
			"project_code",
			mcp.ArgumentDescription("Project code for the knowledge graph to explore"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument(
			"topic",
			mcp.ArgumentDescription("Optional topic or concept to start exploring from"),
		),
	)

	s.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		projectCode := req.Params.Arguments["project_code"]
		topic := req.Params.Arguments["topic"]

		steps := fmt.Sprintf(
			"Explore knowledge graph '%s':\n\n"+
				"1. Call get_knowledge_statistics to see what's in the graph\n"+
				"2. Call get_knowledge_schema to understand the data model\n",
			projectCode)
		if topic != "" {
			steps += fmt.Sprintf(
				"3. Call search_knowledge_graph for '%s'\n"+
					"4. Pick an interesting result and call traverse_knowledge_graph\n"+
					"5. Summarize what you found and the connections\n",
				topic)
		} else {
			steps += "3. List entities for the most populated type\n" +
				"4. Pick an interesting entity and traverse its connections\n" +
				"5. Summarize the graph's contents and structure\n"
		}

		return mcp.NewGetPromptResult(
			"Explore a knowledge graph",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(steps)),
			},
		), nil
	})
}
