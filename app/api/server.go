// Package api serves the dashboard over HTTP: a JSON API for the records, the
// graph view and the extraction pipeline, plus the optional MCP endpoint.
package api

import (
	"context"
	"historydash/app/config"
	"historydash/app/service/agent"
	"historydash/app/service/graph"
	"historydash/app/service/ingest"
	"historydash/app/service/store"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg       *config.Config
	storeSvc  *store.Service
	graphSvc  *graph.Service
	ingestSvc *ingest.Service
	agentSvc  *agent.Service

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Server{
		cfg:       cfg,
		storeSvc:  do.MustInvoke[*store.Service](di),
		graphSvc:  do.MustInvoke[*graph.Service](di),
		ingestSvc: do.MustInvoke[*ingest.Service](di),
	}
	if cfg.HTTP.EnableMCP {
		s.agentSvc = do.MustInvoke[*agent.Service](di)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "historydash",
		ReadTimeout:           cfg.HTTP.Timeout,
		WriteTimeout:          cfg.HTTP.Timeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestContext(s.cfg.HTTP.Timeout))

	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")
	api.Get("/items", s.listItems)
	api.Post("/items", s.createItem)
	api.Get("/items/:id", s.getItem)
	api.Patch("/items/:id", s.updateItem)
	api.Get("/items/:id/related", s.relatedItems)
	api.Post("/items/:id/relationships", s.connectItems)
	api.Get("/timeline", s.timeline)
	api.Get("/graph", s.graphView)
	api.Put("/graph/layout", s.saveLayout)
	api.Post("/extract", s.extractText)
	api.Delete("/extract", s.cancelExtract)
	api.Get("/export", s.export)
	api.Post("/import", s.importItems)

	if s.agentSvc != nil {
		s.app.All("/mcp", adaptor.HTTPHandler(s.agentSvc.Handler()))
	}
}

// requestContext bounds every request by timeout. fasthttp does not cancel on
// client disconnect, so this deadline is what stops a stale extraction from
// being committed after the client gave up.
func requestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)

		return c.Next()
	}
}

// App exposes the router for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Warn("HTTP shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP server listening", "addr", s.cfg.HTTP.Addr, "mcp", s.agentSvc != nil)

	if err := s.app.Listen(s.cfg.HTTP.Addr); err != nil {
		return oops.In("api").With("addr", s.cfg.HTTP.Addr).Wrapf(err, "listen")
	}

	return nil
}
