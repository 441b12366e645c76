package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trenchlabs/trenchbot/internal/core/domain"
)

// Dispatcher fans incoming transaction events out to tracking chats.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []domain.TransactionEvent) error
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server exposes the webhook receiver and health endpoints.
type Server struct {
	dispatcher Dispatcher
	checks     map[string]HealthChecker
	server     *http.Server
	log        *slog.Logger
}

// NewServer creates the HTTP server. checks maps dependency names to
// their health probes and may be empty.
func NewServer(dispatcher Dispatcher, checks map[string]HealthChecker, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		dispatcher: dispatcher,
		checks:     checks,
		log:        slog.Default(),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/helius-webhook", s.handleWebhook)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, "Webhook server is live!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.Health(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
		} else {
			deps[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":       status,
		"dependencies": deps,
	})
}

// handleWebhook ingests a Helius delivery. The provider retries
// non-2xx responses, so dispatch failures are logged and swallowed
// rather than surfaced: redelivery of a processed batch would only
// duplicate alerts.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var events []domain.TransactionEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		s.log.Warn("Webhook payload rejected", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.dispatcher.Dispatch(r.Context(), events); err != nil {
		s.log.Error("Event dispatch failed", "events", len(events), "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
