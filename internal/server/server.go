// Package server implements the demo stream service: the SSE endpoint, the
// reachability probe, and the metrics exposition the real backend provides
// in production. It exists so the watcher can be exercised end to end
// without that backend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

// Server serves the demo stream endpoints.
type Server struct {
	Addr        string
	router      *chi.Mux
	server      *http.Server
	broadcaster *Broadcaster
}

// NewServer creates a demo stream server publishing events from the given
// broadcaster. registry may be nil when metrics exposition is not wanted.
func NewServer(addr string, broadcaster *Broadcaster, registry *prom.Registry) *Server {
	s := &Server{
		Addr:        addr,
		router:      chi.NewRouter(),
		broadcaster: broadcaster,
	}

	s.setupRoutes(registry)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /stream connections are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes(registry *prom.Registry) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stream", s.handleStream)
	s.router.Get("/stream/ping", s.handlePing)

	if registry != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server.
func (s *Server) Start() error {
	slog.Info("demo stream server listening", "addr", s.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// handlePing answers the reachability probe the client may send before
// connecting.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message":   "stream service reachable",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    "ok",
	})
}

// handleStream serves the SSE event stream. The query parameters mirror the
// production service: "type" narrows the event type, "userOnly" restricts to
// the caller's own events, "token" identifies the caller. The demo server
// has no real auth; the token doubles as the viewer identity.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	criteria := stream.Criteria{
		EventType: q.Get("type"),
		ActorOnly: q.Get("userOnly") == "true",
		ViewerID:  q.Get("token"),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering
	w.WriteHeader(http.StatusOK)

	events, unsubscribe := s.broadcaster.Subscribe()
	defer unsubscribe()

	slog.Info("stream client connected", "remote", r.RemoteAddr)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return

		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !criteria.Matches(ev) {
				continue
			}
			s.sendEvent(w, flusher, ev)
		}
	}
}

// sendEvent writes one event in SSE format.
func (s *Server) sendEvent(w http.ResponseWriter, flusher http.Flusher, ev stream.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal stream event", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
