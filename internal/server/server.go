// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/clawdin/internal/bounty"
	"github.com/smartdevs17/clawdin/internal/connection"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/internal/storage"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
}

// ServiceInfo is what GET / reports about this deployment
type ServiceInfo struct {
	Name        string
	Version     string
	Description string
	Network     string
}

// HTTPServer represents the HTTP server
type HTTPServer struct {
	config         *ServerConfig
	info           ServiceInfo
	server         *http.Server
	router         *mux.Router
	bounties       *bounty.Service
	storage        storage.Storage
	connection     connection.Manager
	metricsManager *metrics.Manager
	logger         *logrus.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewHTTPServer creates a new HTTP server. store and conn may be nil: without
// storage the agent directory answers 503, without a connection /health skips
// the RPC health check.
func NewHTTPServer(
	config *ServerConfig,
	info ServiceInfo,
	bounties *bounty.Service,
	store storage.Storage,
	conn connection.Manager,
	metricsManager *metrics.Manager,
) *HTTPServer {

	server := &HTTPServer{
		config:         config,
		info:           info,
		bounties:       bounties,
		storage:        store,
		connection:     conn,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
		done:           make(chan struct{}),
	}

	// Setup router
	server.setupRouter()

	// Create HTTP server
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	get := []string{http.MethodGet, http.MethodOptions}

	s.router.HandleFunc("/", s.infoHandler).Methods(get...)

	// Health check endpoint
	if s.config.EnableHealth {
		s.router.HandleFunc("/health", s.healthHandler).Methods(get...)
	}

	// Metrics endpoint
	if s.config.EnableMetrics && s.metricsManager != nil {
		s.router.Handle("/metrics", s.metricsManager.Handler()).Methods(http.MethodGet)
	}

	// Contract-backed endpoints
	s.router.HandleFunc("/stats", s.statsHandler).Methods(get...)
	s.router.HandleFunc("/bounties", s.listBountiesHandler).Methods(get...)
	s.router.HandleFunc("/bounties/{id}", s.getBountyHandler).Methods(get...)
	s.router.HandleFunc("/bounties/{id}/activity", s.bountyActivityHandler).Methods(get...)

	// Directory endpoints
	s.router.HandleFunc("/bounties/{id}/listing", s.bountyListingHandler).Methods(get...)
	s.router.HandleFunc("/agents", s.listAgentsHandler).Methods(get...)
	s.router.HandleFunc("/agents/{wallet}", s.getAgentHandler).Methods(get...)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found", nil)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})
}

// Handler exposes the router, mainly for tests
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
		"contract":        s.bounties.ContractAddress(),
		"storage_enabled": s.storage != nil,
	}).Info("Starting HTTP server")

	// Update system and component metrics so they appear on first scrape
	if s.metricsManager != nil {
		s.updateMetrics()
		go s.systemMetricsUpdater()
	}

	// Create a channel to receive startup errors
	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Give the server a moment to start and check for immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateMetrics()
		case <-s.done:
			return
		}
	}
}

func (s *HTTPServer) updateMetrics() {
	s.metricsManager.UpdateSystemMetrics()
	pm := s.metricsManager.GetPrometheusMetrics()
	if s.connection != nil {
		pm.UpdateComponentHealth("rpc", s.connection.IsConnected())
	}
	if s.storage != nil {
		pm.UpdateComponentHealth("storage", s.storage.Ping() == nil)
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")
	s.stopOnce.Do(func() { close(s.done) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an {"error": message} response. The cause is logged, never sent.
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		entry := s.logger.WithFields(logrus.Fields{
			"status":     status,
			"message":    message,
			"request_id": w.Header().Get(requestIDHeader),
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("HTTP error")
		} else {
			entry.Warn("HTTP error")
		}
	}

	s.writeJSON(w, status, map[string]string{"error": message})
}
