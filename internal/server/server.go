// Package server exposes the application over a local JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/askpage/internal/app"
	"github.com/hyperifyio/askpage/internal/extract"
	"github.com/hyperifyio/askpage/internal/features"
	"github.com/hyperifyio/askpage/internal/store"
)

// Service is the application surface the API serves. *app.App implements it.
type Service interface {
	Settings(ctx context.Context) (store.Settings, error)
	SaveSettings(ctx context.Context, st store.Settings) error
	Capture(ctx context.Context, req app.CaptureRequest) (app.CaptureResult, error)
	AwaitContext(ctx context.Context, selectionID string) (*extract.PageContext, error)
	CurrentContext(ctx context.Context) (*extract.PageContext, error)
	Ask(ctx context.Context, question string) (store.Turn, error)
	Compare(ctx context.Context, question string, models []string) ([]features.Comparison, error)
	CompareModels(ctx context.Context) []string
	Export(ctx context.Context, format string) ([]byte, string, error)
	Conversation(ctx context.Context) ([]store.Turn, error)
	ClearConversation(ctx context.Context) error
}

var _ Service = (*app.App)(nil)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	svc     Service
	log     zerolog.Logger
	maxWait time.Duration
}

// New creates and configures the HTTP server. maxWait caps how long a
// context request may wait for a capture to finish.
func New(svc Service, log zerolog.Logger, maxWait time.Duration) *Server {
	if maxWait <= 0 {
		maxWait = app.DefaultAwaitTimeout
	}
	s := &Server{svc: svc, log: log, maxWait: maxWait}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Post("/context", s.handleCapture)
		r.Get("/context", s.handleGetContext)

		r.Post("/ask", s.handleAsk)
		r.Get("/models", s.handleModels)
		r.Post("/compare", s.handleCompare)

		r.Get("/conversation", s.handleConversation)
		r.Delete("/conversation", s.handleClearConversation)
		r.Get("/export", s.handleExport)
	})

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}
