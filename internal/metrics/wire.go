package metrics

import (
	"fmt"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/config"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// NewServices wires the complete collector: emission pipeline, aggregator,
// export handlers, routing, and the HTTP server.
// This is a convenience function for dependency injection.
func NewServices(cfg *config.Collector) (transport.Server, transport.Router, *Collector, error) {
	if cfg == nil {
		return nil, nil, nil, fmt.Errorf("config cannot be nil")
	}

	pipeline := NewEmissionPipeline()
	if cfg.OTELEnabled {
		pipeline.Add(NewOTELEmitter(cfg.OTELEndpoint))
	}
	if cfg.DurableEnabled {
		pipeline.Add(NewDurableEmitter(cfg.DurableEndpoint, cfg.DurableMaxAttempts))
	}
	if cfg.FallbackEnabled {
		breaker := NewCircuitBreaker(cfg.BreakerFailureThreshold, cfg.BreakerResetSeconds)
		pipeline.Add(NewFallbackEmitter(cfg.FallbackEndpoint, breaker))
	}

	collector := NewCollector(Options{
		MaxTools: cfg.MaxTools,
		Emitters: pipeline,
	})

	router := transport.NewRouter()
	router.Use(
		transport.NewRecoveryMiddleware(nil),
		transport.NewLoggingMiddleware(nil),
		transport.NewCORSMiddleware(),
	)

	router.Handle("POST /events", NewEventsHandler(collector))
	router.Handle("GET /metrics", NewMetricsHandler(collector))
	router.Handle("GET /tool_metrics", NewToolMetricsHandler(collector))
	router.Handle("GET /health", newHealthHandler(collector))

	server := transport.NewServer(transport.ServerConfig{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router)

	return server, router, collector, nil
}

// newHealthHandler reports process health plus per-emitter availability.
func newHealthHandler(collector *Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"emitters": collector.Emission().HealthStatus(r.Context()),
		})
	})
}
