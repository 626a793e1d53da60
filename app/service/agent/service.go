// Package agent exposes the dashboard operations as MCP tools so an agent can read
// and extend the records over streamable HTTP.
package agent

import (
	"historydash/app/service/graph"
	"historydash/app/service/ingest"
	"historydash/app/service/store"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "historydash"
	serverVersion = "1.0.0"
)

type Service struct {
	storeSvc  *store.Service
	graphSvc  *graph.Service
	ingestSvc *ingest.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		storeSvc:  do.MustInvoke[*store.Service](di),
		graphSvc:  do.MustInvoke[*graph.Service](di),
		ingestSvc: do.MustInvoke[*ingest.Service](di),
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Historical records (characters, events, terms) and the relationships between them. Titles are usually Arabic."),
	)
	s.mcpServer.AddTools(s.tools()...)

	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer, server.WithStateLess(true))

	return s, nil
}

// Handler serves the MCP streamable HTTP transport.
func (s *Service) Handler() http.Handler {
	return s.httpServer
}
