// Package server binds the engine's External Interfaces (spec §6) to a
// chi-routed HTTP API, plus a WebSocket endpoint that relays the
// EventSink's progress/status stream to subscribed UIs.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"zentrio/internal/events"
	"zentrio/internal/filestore"
	"zentrio/internal/logger"
	"zentrio/internal/manager"
)

// Server is the HTTP facade over a Manager.
type Server struct {
	mgr    *manager.Manager
	files  *filestore.FileStore
	bus    *events.Bus
	router chi.Router
	http   *http.Server
}

// New builds a Server listening on addr once Start is called.
func New(addr string, mgr *manager.Manager, files *filestore.FileStore, bus *events.Bus) *Server {
	s := &Server{mgr: mgr, files: files, bus: bus}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(30 * time.Second))

	s.router = r
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/downloads", func(r chi.Router) {
		r.Post("/", s.handleDownloadStart)
		r.Get("/", s.handleDownloadList)
		r.Get("/stats", s.handleStorageStats)
		r.Post("/{id}/pause", s.handleDownloadPause)
		r.Post("/{id}/resume", s.handleDownloadResume)
		r.Post("/{id}/cancel", s.handleDownloadCancel)
		r.Delete("/{id}", s.handleDownloadDelete)
	})

	s.router.Route("/api/profiles/{profileID}", func(r chi.Router) {
		r.Delete("/downloads", s.handlePurgeProfile)
		r.Get("/quota", s.handleGetQuota)
		r.Put("/quota", s.handleSetQuota)
		r.Get("/smart-defaults", s.handleGetSmartDefaults)
		r.Put("/smart-defaults", s.handleSetSmartDefaults)
	})

	s.router.Get("/api/directory", s.handleGetDirectory)
	s.router.Put("/api/directory", s.handleSetDirectory)

	s.router.Get("/ws/events", s.handleWebSocket)
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
