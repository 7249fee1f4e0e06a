package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/storage"
	"github.com/bull/coursechat/internal/tools"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
	store  *storage.Store
	search *search.Service
}

// Config holds server dependencies.
type Config struct {
	Store  *storage.Store
	Search *search.Service
}

// NewServer creates an MCP server with the course tools registered.
// The content and outline tools carry the same names the chat engine
// uses internally, so clients see one consistent tool surface.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "coursechat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        tools.SearchToolName,
		Description: "Search course materials semantically. Optional course_name and lesson_number narrow the search; partial course names resolve against the catalog.",
	}, makeSearchHandler(cfg.Search))

	mcp.AddTool(server, &mcp.Tool{
		Name:        tools.OutlineToolName,
		Description: "Get a course's outline: canonical title, link, instructor and the complete lesson list.",
	}, makeOutlineHandler(cfg.Search))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_courses",
		Description: "List the canonical titles of every indexed course.",
	}, makeListCoursesHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current size of the course index: course and chunk counts plus indexed titles.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server: server,
		store:  cfg.Store,
		search: cfg.Search,
	}
}

// Run starts the server on stdio transport and blocks until the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that need to wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
