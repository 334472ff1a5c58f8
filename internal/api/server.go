// Package api provides the admin REST management API for FluxDNS: CRUD
// over local records, rewrite rules, upstream servers, and listeners;
// runtime settings; cache/upstream status; query log reads; JWT login;
// and the embedded single-page admin UI.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fluxdns/fluxdns/internal/api/handlers"
	"github.com/fluxdns/fluxdns/internal/api/middleware"
	"github.com/fluxdns/fluxdns/internal/config"
)

// Server is the admin REST API server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the gin engine, registers every route, mounts the
// embedded SPA as the fallback, and wraps it in an *http.Server bound
// to cfg.WebPort.
func New(cfg *config.Config, h *handlers.Handler, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	RegisterRoutes(engine, h)
	MountSPA(engine, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
