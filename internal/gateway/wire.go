package gateway

import (
	"fmt"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/config"
	"github.com/fastertools/ftl-gateway/internal/gateway/internal/catalog"
	"github.com/fastertools/ftl-gateway/internal/gateway/internal/worker"
	"github.com/fastertools/ftl-gateway/internal/gateway/middleware"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// NewServices wires the complete gateway: worker client, catalog, middleware
// pipeline, dispatcher, routing, and the HTTP server.
// This is a convenience function for dependency injection.
// The pipeline is returned so main can call Shutdown at teardown.
func NewServices(cfg *config.Gateway) (transport.Server, transport.Router, *middleware.Pipeline, error) {
	if cfg == nil {
		return nil, nil, nil, fmt.Errorf("config cannot be nil")
	}

	workers := worker.NewClient()
	cat := catalog.New(workers, cfg.ComponentNames)

	pipeline := middleware.NewPipeline()
	if cfg.MetricsEnabled {
		pipeline.Add(middleware.NewInvocationTracker(middleware.TrackerConfig{
			Enabled:      true,
			CollectorURL: cfg.CollectorURL,
		}))
	}

	dispatcher := NewDispatcher(cat, workers, pipeline, cfg.ValidateArguments)

	router := transport.NewRouter()
	router.Use(
		transport.NewRecoveryMiddleware(nil),
		transport.NewLoggingMiddleware(nil),
		transport.NewTraceMiddleware(cfg.TraceHeader),
		transport.NewCORSMiddleware(),
	)

	router.Handle("GET /health", newHealthHandler())
	// The runtime may route any path to this component; /mcp is the
	// conventional one.
	router.Handle("/", NewHTTPHandler(dispatcher))

	server := transport.NewServer(transport.ServerConfig{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router)

	return server, router, pipeline, nil
}

// newHealthHandler creates the health check handler.
func newHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
