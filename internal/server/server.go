// Package server wires the HTTP endpoints onto a gin engine.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"idea-print/internal/handlers"
)

// Server is the HTTP front of the print agent.
type Server struct {
	engine *gin.Engine
	log    zerolog.Logger
}

// New builds the router. Verbose switches gin into debug mode with its
// request logger; otherwise only panic recovery is installed.
func New(handler *handlers.Handler, verbose bool, log zerolog.Logger) *Server {
	var engine *gin.Engine
	if verbose {
		gin.SetMode(gin.DebugMode)
		engine = gin.Default()
	} else {
		gin.SetMode(gin.ReleaseMode)
		engine = gin.New()
		engine.Use(gin.Recovery())
	}

	engine.POST("/print", handler.Print)
	engine.GET("/health", handler.Health)

	return &Server{engine: engine, log: log}
}

// Run serves until the listener fails.
func (s *Server) Run(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.log.Info().Str("addr", addr).Msg("server listening")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
