// Package server provides the HTTP façade over the ingestion pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkravets/telescan/internal/store"
	"github.com/mkravets/telescan/pkg/embed"
	"github.com/mkravets/telescan/pkg/ingest"
)

// Runner triggers ingestion runs on demand.
type Runner interface {
	Run(ctx context.Context, sourceID string) (*ingest.RunReport, error)
}

// Server exposes health, embed-on-demand, manual trigger, and status
// endpoints. It only calls into the pipeline; it never writes checkpoint
// or document rows itself.
type Server struct {
	store    store.Store
	runner   Runner
	embedder embed.Embedder
	port     int
	logger   *slog.Logger
}

// New creates the HTTP server.
func New(st store.Store, runner Runner, embedder embed.Embedder, port int, logger *slog.Logger) *Server {
	if port == 0 {
		port = 8000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    st,
		runner:   runner,
		embedder: embedder,
		port:     port,
		logger:   logger.With("component", "server"),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/embed", s.handleEmbed)
	mux.HandleFunc("/ingest/run", s.handleIngestRun)
	mux.HandleFunc("/ingest/status", s.handleIngestStatus)
	return mux
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "telescan"})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return
	}

	vector, err := s.embedder.EmbedText(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("embed request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"embedding": vector})
}

func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SourceID string `json:"source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source_id required"})
		return
	}

	report, err := s.runner.Run(r.Context(), req.SourceID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Error("manual run failed", "source", req.SourceID, "err", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "report": report})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	counts, err := s.store.CountDocumentsBySource(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type sourceStatus struct {
		SourceID   string `json:"source_id"`
		Kind       string `json:"kind"`
		Active     bool   `json:"active"`
		Checkpoint int64  `json:"checkpoint"`
		Documents  int    `json:"documents"`
	}

	statuses := make([]sourceStatus, 0, len(sources))
	for _, src := range sources {
		cp, _, err := s.store.Checkpoint(ctx, src.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		statuses = append(statuses, sourceStatus{
			SourceID:   src.ID,
			Kind:       string(src.Kind),
			Active:     src.Active,
			Checkpoint: cp,
			Documents:  counts[src.ID],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"sources": statuses, "count": len(statuses)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
