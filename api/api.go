// Package api serves the backend HTTP surface.
//
// The application listener carries a single route, GET /, behind the global
// middleware chain (request tracing, optional rate limiting, JSON body parsing).
// Health and metrics live on a separate admin listener, see NewAdmin.
package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"backend/config"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// rootMessage is the body served on GET /.
const rootMessage = "API is running"

// API holds the API server
type API struct {
	router  *mux.Router
	handler http.Handler
	server  *http.Server
	config *config.Config
	logger *zap.SugaredLogger

	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAPI creates a new API server
func NewAPI(cfg *config.Config, logger *zap.SugaredLogger) *API {
	api := &API{
		router:       mux.NewRouter(),
		config:       cfg,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	api.setupRoutes()
	api.server = &http.Server{
		Handler:           api.handler,
		ReadHeaderTimeout: cfg.API.ReadHeaderTimeout,
	}
	if cfg.API.RateLimit.Enabled {
		go api.cleanupRateLimiters()
	}
	return api
}

// setupRoutes sets up the API routes. Middleware registered on the router
// applies to every route added to it, now or later. Request tracing wraps the
// router itself so unmatched requests are tagged, logged and counted too.
func (a *API) setupRoutes() {
	if a.config.API.RateLimit.Enabled {
		a.router.Use(a.rateLimitMiddleware)
	}
	a.router.Use(a.jsonBodyMiddleware)

	a.router.HandleFunc("/", a.getRoot).Methods(http.MethodGet, http.MethodHead)

	// Any other method on a known path is treated like an unknown path.
	a.router.MethodNotAllowedHandler = http.HandlerFunc(http.NotFound)

	a.handler = a.requestIDMiddleware(a.router)
}

// Handler returns the root HTTP handler.
func (a *API) Handler() http.Handler {
	return a.handler
}

// Listen binds the API socket. Binding is kept separate from Serve so that
// callers see bind errors (port in use, bad port) synchronously.
func (a *API) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve serves the API on ln until Stop is called.
func (a *API) Serve(ln net.Listener) error {
	return a.server.Serve(ln)
}

// Start binds addr and serves on it
func (a *API) Start(addr string) error {
	ln, err := a.Listen(addr)
	if err != nil {
		return err
	}
	return a.Serve(ln)
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	return a.server.Shutdown(ctx)
}
