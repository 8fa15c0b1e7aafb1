package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-feed-cache/internal/config"
	"go-feed-cache/internal/interfaces"
)

const unixPrefix = "unix:"

// Server represents the HTTP resource server
type Server struct {
	service interfaces.ResourceService
	cfg     config.ServerConfig
	auth    config.AuthConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a new resource HTTP server
func NewServer(service interfaces.ResourceService, cfg config.ServerConfig, auth config.AuthConfig, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		auth:    auth,
		logger:  logger,
	}

	// Built up front so Stop never races with Start
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start listens on the configured address and serves until Stop is called.
// An address of the form "unix:/path" listens on a Unix socket.
func (s *Server) Start() error {
	listener, err := s.listen(s.cfg.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listen(addr string) (net.Listener, error) {
	if !strings.HasPrefix(addr, unixPrefix) {
		return net.Listen("tcp", addr)
	}

	socketPath := strings.TrimPrefix(addr, unixPrefix)
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}
	return listener, nil
}

// Stop stops the HTTP server. A server stopped before Start returns from
// Start immediately.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Fixed routes take precedence over resource names
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/resources", s.handleResources).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/{resource}/debug", s.requireToken(s.handleDebug)).Methods(http.MethodGet)
	router.HandleFunc("/{resource}/refresh", s.requireToken(s.handleRefresh)).Methods(http.MethodGet)
	router.HandleFunc("/{resource}", s.handleResource).Methods(http.MethodGet)

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// corsMiddleware lets browser front-ends on any origin read responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
