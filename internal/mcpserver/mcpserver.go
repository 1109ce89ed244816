// Package mcpserver exposes a pkg/tools.Registry over the Model Context
// Protocol, the extension surface spec.md §1 reserves for callers that
// want the tool runtime without the full agent loop. Grounded on
// _examples/ternarybob-iter/index/mcp_server.go's NewMCPServer/AddTool/
// ServeStdio pattern, generalized from a hand-written per-tool table to a
// dynamic one driven by the registry's own schema so every tool in
// pkg/toolset is reachable without duplicating its definition here.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doge-run/doge/pkg/tools"
)

// Server adapts a *tools.Registry to MCP, both over stdio (matching the
// teacher's deployment mode) and over HTTP behind chi (SPEC_FULL.md
// DOMAIN STACK: go-chi, go-chi/cors) for callers that need network access
// to the tool set instead of a subprocess.
type Server struct {
	registry *tools.Registry
	toolCtx  tools.Context
	mcp      *server.MCPServer
}

// New builds an MCP server exposing every tool currently registered.
func New(name, version string, registry *tools.Registry, toolCtx tools.Context) *Server {
	s := &Server{registry: registry, toolCtx: toolCtx}

	mcpServer := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	for _, def := range registry.Definitions() {
		mcpServer.AddTool(
			mcp.NewToolWithRawSchema(def.Function.Name, def.Function.Description, def.Function.Parameters),
			s.handlerFor(def.Function.Name),
		)
	}
	s.mcp = mcpServer
	return s
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode arguments: %v", err)), nil
		}

		content := s.registry.Dispatch(ctx, s.toolCtx, tools.Call{
			ID:        request.Params.Name,
			Type:      "function",
			Name:      name,
			Arguments: string(args),
		})
		return mcp.NewToolResultText(content), nil
	}
}

// ServeStdio runs the server on stdio, the teacher's single-process MCP
// deployment mode (index/mcp_server.go's ServeStdio).
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Router mounts the MCP server's streamable HTTP transport behind chi
// with permissive CORS, for network-reachable deployments.
func (s *Server) Router() http.Handler {
	httpServer := server.NewStreamableHTTPServer(s.mcp)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Mount("/mcp", httpServer)
	return r
}
