// Package webhook exposes the HTTP surface of the bot: the Telegram webhook
// endpoint, liveness and health probes, Prometheus metrics, and the admin
// stats endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikelchange/kurbot/internal/audit"
	"github.com/nikelchange/kurbot/internal/bot"
	"github.com/nikelchange/kurbot/internal/health"
	"github.com/nikelchange/kurbot/internal/telegram"
	"github.com/nikelchange/kurbot/pkg/graceful"
	"github.com/nikelchange/kurbot/pkg/logger"
)

const maxUpdateBodyBytes = 1 << 20

// Server routes HTTP traffic to the update handler and the operational
// endpoints.
type Server struct {
	handler bot.UpdateHandler
	checker *health.Checker
	stats   *audit.StatsService
	log     *slog.Logger
	path    string
}

// NewServer builds the webhook server. path is the webhook route, usually
// containing the bot token as a secret path segment.
func NewServer(
	handler bot.UpdateHandler,
	checker *health.Checker,
	stats *audit.StatsService,
	log *slog.Logger,
	path string,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		path = "/telegram/webhook"
	}

	return &Server{
		handler: handler,
		checker: checker,
		stats:   stats,
		log:     log,
		path:    path,
	}
}

// Routes assembles the HTTP mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(s.path, s.handleWebhook)
	mux.HandleFunc("/", s.handleLiveness)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/admin/stats", s.handleStats)

	return logger.Middleware(mux)
}

// Run serves the routes on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return graceful.NewServer(s.log, httpServer, shutdownTimeout).ListenAndServe(ctx)
}

// handleWebhook is the Telegram delivery endpoint. Handled updates answer
// {"ok":true}; malformed or failed updates answer an error status so
// Telegram redelivers them.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	// GET on the webhook route doubles as a reachability probe.
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": "kurbot",
		})
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBodyBytes))
	if err != nil {
		s.log.Error("failed to read webhook body", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "read error"})
		return
	}

	update, err := telegram.ParseUpdate(body)
	if err != nil {
		// Declared-but-broken shapes are rejected; Telegram will not fix
		// them on retry, so a client error ends the redelivery cycle.
		s.log.Warn("rejected malformed update", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "malformed update"})
		return
	}

	if err := s.handler(r.Context(), update); err != nil {
		if errors.Is(err, context.Canceled) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "shutting down"})
			return
		}

		s.log.Error("update handling failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleLiveness is the cheap reachability probe at the root path.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "kurbot",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.checker.Check(r.Context())

	status := http.StatusOK
	for _, result := range results {
		if result != "OK" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": results,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.NotFound(w, r)
		return
	}

	stats, err := s.stats.Collect(r.Context())
	if err != nil {
		s.log.Error("failed to collect stats", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", slog.Any("error", err))
	}
}
