// Package server implements the kinchart HTTP API.
//
// The API has two halves: a stateless chart endpoint that computes a
// chart from a dataset supplied inline or by URL, and a small dataset
// store (upload once, chart many times) backed by the datastore
// package. All responses are JSON; errors carry the machine-readable
// codes from the errors package.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kinforge/kinchart/pkg/datastore"
	kcerrors "github.com/kinforge/kinchart/pkg/errors"
	"github.com/kinforge/kinchart/pkg/pipeline"
)

// Server holds the API dependencies.
type Server struct {
	store  datastore.Store
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server. A nil store disables the dataset endpoints
// (they respond 404); a nil logger discards request logs.
func New(store datastore.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, runner: runner, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/charts", s.handleChart)

		if s.store != nil {
			r.Route("/datasets", func(r chi.Router) {
				r.Post("/", s.handleDatasetUpload)
				r.Get("/", s.handleDatasetList)
				r.Get("/{id}", s.handleDatasetGet)
				r.Delete("/{id}", s.handleDatasetDelete)
				r.Get("/{id}/chart", s.handleDatasetChart)
			})
		}
	})

	return r
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// =============================================================================
// Response Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the error payload shape shared by all endpoints.
type errorBody struct {
	Code    kcerrors.Code `json:"code"`
	Message string        `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code kcerrors.Code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeDomainError maps a pipeline or datastore error to a response.
func writeDomainError(w http.ResponseWriter, err error) {
	if code := kcerrors.GetCode(err); code != "" {
		status := http.StatusBadRequest
		switch code {
		case kcerrors.ErrCodeDatasetNotFound, kcerrors.ErrCodeNotFound, kcerrors.ErrCodeFileNotFound:
			status = http.StatusNotFound
		case kcerrors.ErrCodeNetwork, kcerrors.ErrCodeTimeout:
			status = http.StatusBadGateway
		case kcerrors.ErrCodeInternal:
			status = http.StatusInternalServerError
		}
		writeError(w, status, code, kcerrors.UserMessage(err))
		return
	}
	writeError(w, http.StatusInternalServerError, kcerrors.ErrCodeInternal, err.Error())
}
