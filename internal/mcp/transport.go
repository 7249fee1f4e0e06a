package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the HTTP transport.
type HTTPHandlerOptions struct {
	// Stateless disables session management. The course tools are
	// independent request/response calls, so stateless works for most
	// deployments.
	Stateless bool
}

// NewHTTPHandler exposes the MCP server over Streamable HTTP. The
// handler mounts on any mux path, typically "/mcp", next to the health
// and landing handlers.
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	sdkOpts := &mcp.StreamableHTTPOptions{
		Stateless: opts.Stateless,
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, sdkOpts)
}
