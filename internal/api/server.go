package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"Lodestar/engine"
	"Lodestar/pkg/errors"
)

// Server wraps the engine behind a JSON HTTP API.
type Server struct {
	engine *engine.Engine
	router *gin.Engine
	http   *http.Server
}

// NewServer builds the router and registers all routes. Nothing listens
// until Run is called; tests drive Router directly.
func NewServer(e *engine.Engine) *Server {
	if !e.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLog(e.Logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	s := &Server{engine: e, router: router}
	s.registerRoutes()
	return s
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Run blocks serving HTTP on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.engine.Logger.Info("HTTP API listening on %s", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
