package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/trawler"
	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/dsl"
	"github.com/aretw0/trawler/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner is the execution service behind the handlers.
type Runner interface {
	RunScript(ctx context.Context, script *dsl.Script) (*runner.Result, error)
	Load(ctx context.Context, id string) (domain.Tree, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Server exposes a Runner over HTTP.
type Server struct {
	Runner   Runner
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// NewHandler creates the HTTP handler for r.
func NewHandler(r Runner, opts ...Option) http.Handler {
	s := &Server{
		Runner:   r,
		Logger:   logging.NewNop(),
		Gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := chi.NewRouter()
	mux.Post("/", s.RunActions)
	mux.Post("/workflows", s.RunWorkflow)
	mux.Get("/results", s.ListResults)
	mux.Get("/results/{id}", s.GetResult)
	mux.Delete("/results/{id}", s.DeleteResult)
	mux.Get("/healthz", s.GetHealth)
	mux.Get("/info", s.GetInfo)
	mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	return enableCORS(mux)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WorkflowResponse is the body of POST /workflows.
type WorkflowResponse struct {
	ID     string               `json:"id,omitempty"`
	State  domain.Tree          `json:"state"`
	Tasks  []trawler.TaskReport `json:"tasks"`
	Halted bool                 `json:"halted"`
	Error  string               `json:"error,omitempty"`
}

// RunActions handles POST /: {"actions": [...]} runs as one task and the
// response is the bare state tree.
func (s *Server) RunActions(w http.ResponseWriter, r *http.Request) {
	script, ok := s.decodeScript(w, r)
	if !ok {
		return
	}
	if len(script.Tasks) != 1 {
		writeError(w, http.StatusBadRequest, "expected a single task under \"actions\"")
		return
	}

	res, err := s.Runner.RunScript(r.Context(), script)
	if res == nil {
		s.Logger.Error("run failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		s.Logger.Warn("run halted", "err", err)
	}
	writeJSON(w, statusFor(err), res.State)
}

// RunWorkflow handles POST /workflows.
func (s *Server) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	script, ok := s.decodeScript(w, r)
	if !ok {
		return
	}
	if len(script.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "no tasks")
		return
	}

	res, err := s.Runner.RunScript(r.Context(), script)
	if res == nil {
		s.Logger.Error("run failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := WorkflowResponse{
		ID:    res.ID,
		State: res.State,
		Error: res.Error,
	}
	if res.Report != nil {
		resp.Tasks = res.Report.Tasks
		resp.Halted = res.Report.Halted
	}
	if err != nil {
		s.Logger.Warn("workflow halted", "id", res.ID, "err", err)
		resp.Error = err.Error()
	}
	writeJSON(w, statusFor(err), resp)
}

// ListResults handles GET /results.
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Runner.List(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// GetResult handles GET /results/{id}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Runner.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// DeleteResult handles DELETE /results/{id}.
func (s *Server) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := s.Runner.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "trawler-http",
		"version": strings.TrimSpace(trawler.Version),
	})
}

func (s *Server) decodeScript(w http.ResponseWriter, r *http.Request) (*dsl.Script, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, int64(runner.MaxScriptSize())+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if err := runner.CheckScript(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.Logger.Warn("script rejected", "err", err, "size", len(data))
		return nil, false
	}

	var root map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.Logger.Warn("invalid request body", "err", err)
		return nil, false
	}
	script, err := dsl.FromValue(root)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid script: %v", err))
		return nil, false
	}
	return script, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, trawler.ErrNoStore):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		s.Logger.Error("store failure", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// statusFor maps a halting error: configuration errors are the client's
// fault, everything else is ours.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsConfigError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
