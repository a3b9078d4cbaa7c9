package api

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/spotforge/spotforge-agent/internal/catalog"
	"github.com/spotforge/spotforge-agent/internal/engine"
	"github.com/spotforge/spotforge-agent/internal/export"
	"github.com/spotforge/spotforge-agent/internal/sequence"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// EngineStatus exposes the readiness state to handlers.
type EngineStatus interface {
	State() engine.State
}

type ServerConfig struct {
	Port       int
	Catalog    *catalog.Store
	Ingestor   *catalog.Ingestor
	Sequences  *sequence.Store
	Generator  *sequence.Generator
	Exporter   *export.Pipeline
	Engine     EngineStatus
	Repository export.Repository
	Logger     *slog.Logger
	StartTime  time.Time
	DeviceID   string
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Generator == nil {
		cfg.Generator = sequence.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
