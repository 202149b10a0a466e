package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"backend/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// healthCheckTimeout bounds the database ping behind /health.
const healthCheckTimeout = 2 * time.Second

// DatabaseStatus is the view of the database handle the admin surface needs
type DatabaseStatus interface {
	State() storage.ConnectionState
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// Admin serves operational endpoints on their own listener
type Admin struct {
	router *mux.Router
	server *http.Server
	db     DatabaseStatus
	logger *zap.SugaredLogger
}

// NewAdmin creates the admin server exposing /health and /metrics
func NewAdmin(db DatabaseStatus, logger *zap.SugaredLogger) *Admin {
	admin := &Admin{
		router: mux.NewRouter(),
		db:     db,
		logger: logger,
	}
	admin.server = &http.Server{
		Handler:           admin.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	admin.router.HandleFunc("/health", admin.healthCheck).Methods("GET")
	admin.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return admin
}

// Handler returns the admin HTTP handler.
func (s *Admin) Handler() http.Handler {
	return s.router
}

// Serve serves admin endpoints on ln until Stop is called.
func (s *Admin) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Stop stops the admin server
func (s *Admin) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// healthCheck reports healthy only when the database answers a ping.
// The process itself keeps serving either way.
func (s *Admin) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Database: s.db.State().String(),
		Time:     time.Now().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if err := s.db.HealthCheck(ctx); err != nil {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
		s.logger.Debugw("Health check degraded", "database", response.Database, "error", err)
	}

	respondJSON(w, response, statusCode, s.logger)
}
