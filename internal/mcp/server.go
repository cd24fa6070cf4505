package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atharvvvg/LLMRepo/internal/engine"
)

// Server wraps the MCP server with its engine dependency.
type Server struct {
	server *mcp.Server
	engine *engine.Engine
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(eng *engine.Engine) *Server {
	impl := &mcp.Implementation{
		Name:    "repo-context-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_repo",
		Description: "Ask a natural-language question about a GitHub repository. Answers are grounded in the repository's files; pass session_id from a previous call to continue a conversation.",
	}, makeQueryHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo_info",
		Description: "Get an overview of a GitHub repository: top-level structure, file count, and a generated summary.",
	}, makeInfoHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_file",
		Description: "Summarize a single file from a GitHub repository by path.",
	}, makeSummarizeHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_dependencies",
		Description: "List a repository's declared dependencies per ecosystem (npm, pip, Go modules, Cargo) with a prose explanation of the tech stack.",
	}, makeDependenciesHandler(eng))

	return &Server{server: server, engine: eng}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
