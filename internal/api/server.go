package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/orchestrator"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

// Server is reviewloop's HTTP surface: webhook ingress, the read-only
// dashboard API, and the live event stream, all over one mux.
type Server struct {
	httpServer *http.Server
	ws         *WSHandler
	logger     *slog.Logger
}

// NewServer wires the webhook handler, dashboard handlers, and websocket
// stream onto a single ServeMux bound to addr.
func NewServer(addr string, provider hosting.ProviderType, webhookSecret []byte, host hosting.Provider,
	store sessionstore.Store, orc *orchestrator.Orchestrator, publisher events.Publisher, logger *slog.Logger) *Server {

	if logger == nil {
		logger = slog.Default()
	}

	webhook := NewWebhookHandler(provider, webhookSecret, host, orc, logger)
	handlers := NewHandlers(store, orc)
	ws := NewWSHandler(publisher, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handlers.Liveness)
	mux.Handle("POST /webhook", webhook)
	mux.HandleFunc("GET /api/history", handlers.History)
	mux.HandleFunc("GET /api/history/pr/{pr_number}", handlers.HistoryByPR)
	mux.HandleFunc("GET /api/history/skipped", handlers.HistorySkipped)
	mux.HandleFunc("GET /api/metrics", handlers.Metrics)
	mux.HandleFunc("GET /api/trigger-config", handlers.TriggerConfig)
	mux.HandleFunc("POST /api/manual-run", handlers.ManualRun)
	mux.HandleFunc("POST /api/runs/{run_id}/retry", handlers.Retry)
	mux.Handle("GET /api/stream", ws)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ws:     ws,
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server and blocks until it exits or ctx is
// canceled, in which case it shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// Addr returns the server's bound address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
