// Package api serves the provenance REST API under a configurable base path.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/lineage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

// Server routes API requests to the store.
type Server struct {
	store   *storage.Store
	locales *locale.Bundle
	log     *zap.SugaredLogger
	base    string
	mux     *http.ServeMux
}

// NewServer builds the API with every route registered under base
// (for example "/api").
func NewServer(store *storage.Store, locales *locale.Bundle, log *zap.SugaredLogger, base string) *Server {
	s := &Server{
		store:   store,
		locales: locales,
		log:     log,
		base:    base,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	p := s.base + "/provenance"
	s.mux.HandleFunc("GET "+p+"/graph", s.handleGraph)
	s.mux.HandleFunc("GET "+p+"/entity/{id}", s.handleEntity)
	s.mux.HandleFunc("GET "+p+"/activity/{id}", s.handleActivity)
	s.mux.HandleFunc("GET "+p+"/search", s.handleSearch)
	s.mux.HandleFunc("GET "+p+"/timeline", s.handleTimeline)
	s.mux.HandleFunc("GET "+p+"/graph/{id}", s.handleEntityLineage)
	s.mux.HandleFunc("GET "+p+"/activity-graph/{id}", s.handleActivityWorkflow)
	s.mux.HandleFunc("GET "+p+"/graph-summary", s.handleSummary)
	s.mux.HandleFunc("POST "+p+"/entities", s.handleCreateEntity)
	s.mux.HandleFunc("POST "+p+"/activities", s.handleRecordActivity)
	s.mux.HandleFunc("POST "+p+"/activities/{id}/complete", s.handleCompleteActivity)
	s.mux.HandleFunc("POST "+p+"/activities/{id}/configurations", s.handleAddConfiguration)
	s.mux.HandleFunc("POST "+p+"/agents", s.handleCreateAgent)
	s.mux.HandleFunc("POST "+p+"/relationships", s.handleCreateRelationship)

	s.mux.HandleFunc("GET "+s.base+"/projects", s.handleListProjects)
	s.mux.HandleFunc("POST "+s.base+"/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET "+s.base+"/projects/{id}", s.handleGetProject)

	t := s.base + "/workflow-template"
	s.mux.HandleFunc("GET "+t, s.handleListTemplates)
	s.mux.HandleFunc("POST "+t, s.handleCreateTemplate)
	s.mux.HandleFunc("GET "+t+"/{id}", s.handleGetTemplate)
	s.mux.HandleFunc("PUT "+t+"/{id}", s.handleUpdateTemplate)
	s.mux.HandleFunc("DELETE "+t+"/{id}", s.handleDeleteTemplate)
	s.mux.HandleFunc("POST "+t+"/{id}/run", s.handleRunTemplate)

	s.mux.HandleFunc("GET "+s.base+"/locales", s.handleLocales)
	s.mux.HandleFunc("GET "+s.base+"/locales/{lang}", s.handleLocaleMessages)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) lineage() *lineage.Builder {
	return lineage.NewBuilder(s.store)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, models.Envelope{Success: true, Data: data})
}

// writeError maps store errors onto status codes: not found is 404, bad
// input is 400, anything else is 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrInvalid):
		status = http.StatusBadRequest
	default:
		s.log.Errorw("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorEnvelope(err.Error()))
}

func errorEnvelope(msg string) models.Envelope {
	return models.Envelope{Success: false, Error: msg}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("Invalid JSON body"))
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets streaming handlers behind the middleware flush.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Infow("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
