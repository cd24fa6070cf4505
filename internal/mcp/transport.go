package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewHTTPHandler serves the MCP server over Streamable HTTP for remote
// clients. Mount it on the shared mux (e.g. at "/mcp") next to the REST
// routes; stdio clients use Server.Run instead.
func NewHTTPHandler(server *Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, nil)
}
