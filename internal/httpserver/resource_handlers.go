package httpserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-feed-cache/internal/orchestrator"
)

const (
	headerCacheStatus = "X-Cache-Status"
	headerCacheKey    = "X-Cache-Key"
)

// handleResource serves a resource, from the cache when its window is fresh
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	s.serveResource(w, r, false)
}

// handleDebug serves a resource after forcing a recompute
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	s.serveResource(w, r, true)
}

func (s *Server) serveResource(w http.ResponseWriter, r *http.Request, forceRefresh bool) {
	resource := mux.Vars(r)["resource"]

	envelope, err := s.service.Get(r.Context(), resource, forceRefresh)
	if err != nil {
		s.writeServiceError(w, resource, err)
		return
	}

	w.Header().Set(headerCacheStatus, string(envelope.Status))
	w.Header().Set(headerCacheKey, envelope.Key)
	s.writeResponse(w, envelope)
}

// handleRefresh recomputes a resource without returning it
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]

	if err := s.service.Warm(r.Context(), resource); err != nil {
		s.writeServiceError(w, resource, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// handleResources lists registered resources
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, &ResourcesResponse{Resources: s.service.Resources()})
}

// writeServiceError maps orchestrator errors to HTTP statuses
func (s *Server) writeServiceError(w http.ResponseWriter, resource string, err error) {
	var producerErr *orchestrator.ProducerError

	switch {
	case errors.Is(err, orchestrator.ErrUnknownResource):
		s.writeErrorResponse(w, "unknown resource: "+resource, http.StatusNotFound)
	case errors.As(err, &producerErr):
		s.writeErrorResponse(w, producerErr.Error(), http.StatusBadGateway)
	default:
		s.logger.Error("Failed to serve resource", zap.String("resource", resource), zap.Error(err))
		s.writeErrorResponse(w, "internal error", http.StatusInternalServerError)
	}
}

// ResourcesResponse is the body of GET /resources
type ResourcesResponse struct {
	Resources []string `json:"resources"`
}
