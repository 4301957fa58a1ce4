package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Brownie44l1/emotion-api/internal/handlers"
	"github.com/Brownie44l1/emotion-api/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP front end of the prediction pipeline.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, h *handlers.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	s := &Server{
		router: r,
		logger: logger,
	}
	s.setupRoutes(h)

	// Inference on a 100-frame clip can be slow; these are the only timeouts.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(h *handlers.Handler) {
	s.router.Get("/", h.Index)
	s.router.Get("/health", h.Health)
	s.router.Post("/predict", h.Predict)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
