// Package api exposes the HTTP interface for the compensation scout service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/config"
	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/orchestrator"
	"github.com/talentscout/compscout/internal/pipeline"
)

// Runner executes crawl requests synchronously, either against a single
// listing URL or across every stored target company.
type Runner interface {
	Run(ctx context.Context, req pipeline.CrawlRequest) ([]pipeline.CompRecord, error)
	RunBulk(ctx context.Context, roleKeyword string, resultLimit int) ([]pipeline.CompRecord, error)
}

// Diagnoser produces a step-by-step fetch trace for a URL.
type Diagnoser interface {
	Diagnose(ctx context.Context, url string) pipeline.DiagnosticReport
}

// Server wires HTTP handlers to the orchestrator and stores.
type Server struct {
	router    chi.Router
	runner    Runner
	diagnoser Diagnoser
	records   pipeline.RecordStore
	targets   pipeline.TargetStore
	idGen     pipeline.IDGenerator
	clock     pipeline.Clock
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	runner Runner,
	diagnoser Diagnoser,
	records pipeline.RecordStore,
	targets pipeline.TargetStore,
	idGen pipeline.IDGenerator,
	clock pipeline.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		runner:    runner,
		diagnoser: diagnoser,
		records:   records,
		targets:   targets,
		idGen:     idGen,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(5 * time.Minute))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawls", s.runCrawl)
		r.Get("/records", s.listRecords)
		r.Route("/targets", func(r chi.Router) {
			r.Get("/", s.listTargets)
			r.Post("/", s.addTarget)
			r.Delete("/{target_id}", s.removeTarget)
		})
		r.Post("/diagnose", s.diagnose)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type crawlRequest struct {
	CareerURL   string `json:"career_url"`
	RoleKeyword string `json:"role_keyword"`
	ResultLimit int    `json:"result_limit"`
}

// runCrawl triggers a synchronous crawl. With career_url set it crawls
// that single listing; without it, every stored target company is crawled
// for the role keyword.
func (s *Server) runCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.RoleKeyword == "" {
		writeError(w, http.StatusBadRequest, "role_keyword is required")
		return
	}

	var (
		saved []pipeline.CompRecord
		err   error
	)
	if req.CareerURL == "" {
		saved, err = s.runner.RunBulk(r.Context(), req.RoleKeyword, req.ResultLimit)
	} else {
		saved, err = s.runner.Run(r.Context(), pipeline.CrawlRequest{
			CareerURL:   req.CareerURL,
			RoleKeyword: req.RoleKeyword,
			ResultLimit: req.ResultLimit,
		})
	}
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoMatches) || errors.Is(err, orchestrator.ErrNoTargets) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if saved == nil {
		saved = []pipeline.CompRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": saved})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []pipeline.CompRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

type targetRequest struct {
	Name      string `json:"name"`
	CareerURL string `json:"career_url"`
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.targets.ListTargets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list targets")
		return
	}
	if targets == nil {
		targets = []pipeline.TargetCompany{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

func (s *Server) addTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.CareerURL == "" {
		writeError(w, http.StatusBadRequest, "name and career_url are required")
		return
	}
	id, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("generate target id: %v", err))
		return
	}
	target := pipeline.TargetCompany{
		ID:        id,
		Name:      req.Name,
		CareerURL: req.CareerURL,
		CreatedAt: s.clock.Now(),
	}
	if err := s.targets.Add(r.Context(), target); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store target")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"target": target})
}

func (s *Server) removeTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "target_id")
	if err := s.targets.Remove(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "target not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"target_id": id, "status": "deleted"})
}

type diagnoseRequest struct {
	URL string `json:"url"`
}

func (s *Server) diagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	report := s.diagnoser.Diagnose(r.Context(), req.URL)
	writeJSON(w, http.StatusOK, report)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
