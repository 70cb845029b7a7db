// Package server exposes the batch orchestrator over a small HTTP API:
// trigger a run, poll its progress and fetch the latest report.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"epin-scraper/config"
	"epin-scraper/models"
	"epin-scraper/scraper"
)

// scrapeRequest is the body accepted by POST /scrape.
type scrapeRequest struct {
	URLs []string `json:"urls"`
}

// status is the process-scoped run state returned by GET /status.
type status struct {
	Running     bool       `json:"running"`
	BatchID     string     `json:"batchId,omitempty"`
	Done        int        `json:"done"`
	Total       int        `json:"total"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	TotalItems  int        `json:"totalItems"`
	FailedCount int        `json:"failedCount"`
}

// Server owns one orchestrator and serializes batch runs: a second
// POST /scrape while one is active is rejected with 409.
type Server struct {
	cfg  *config.Config
	orch *scraper.Orchestrator

	mu           sync.Mutex
	state        status
	report       *models.BatchReport
	lastFinished time.Time
}

// New wires the HTTP shell around an orchestrator.
func New(cfg *config.Config, orch *scraper.Orchestrator) *Server {
	return &Server{cfg: cfg, orch: orch}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scrape", s.handleScrape)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/results", s.handleResults)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.orch.Metrics().Registry, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts the listener
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", s.cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		http.Error(w, "urls must not be empty", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.state.Running {
		current := s.state
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(current)
		return
	}
	now := time.Now()
	s.state = status{Running: true, Total: len(req.URLs), StartedAt: &now}
	s.mu.Unlock()

	go s.runBatch(req.URLs)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"accepted": true,
		"total":    len(req.URLs),
	})
}

// runBatch executes one batch in the background and records its report.
// Follow-up batches are spaced out by the configured batch delay.
func (s *Server) runBatch(urls []string) {
	s.mu.Lock()
	lastFinished := s.lastFinished
	s.mu.Unlock()
	if !lastFinished.IsZero() {
		if since := time.Since(lastFinished); since < s.cfg.BatchDelay {
			time.Sleep(s.cfg.BatchDelay - since)
		}
	}

	report := s.orch.ScrapeURLs(context.Background(), urls, func(done, total int) {
		s.mu.Lock()
		s.state.Done = done
		s.state.Total = total
		s.mu.Unlock()
	})

	finished := time.Now()
	s.mu.Lock()
	s.lastFinished = finished
	s.state.Running = false
	s.state.BatchID = report.BatchID
	s.state.FinishedAt = &finished
	s.state.TotalItems = report.TotalItemCount
	s.state.FailedCount = report.FailedCount
	if len(report.ErrorMessages) > 0 {
		s.state.LastError = report.ErrorMessages[len(report.ErrorMessages)-1]
	}
	s.report = report
	s.mu.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	current := s.state
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(current)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	report := s.report
	s.mu.Unlock()

	if report == nil {
		http.Error(w, "no batch has completed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
