package authorizer

import (
	"fmt"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/authz"
	"github.com/fastertools/ftl-gateway/internal/config"
	"github.com/fastertools/ftl-gateway/internal/policy"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// NewServices wires the complete authorizer: auth services, discovery
// endpoints, the forwarder, routing, and the HTTP server.
// This is a convenience function for dependency injection.
func NewServices(cfg *config.Authorizer) (transport.Server, transport.Router, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config cannot be nil")
	}

	verifier, extractor, disco, _, err := authz.NewAuthServices(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create auth services: %w", err)
	}

	forwarder, err := NewForwarder(cfg.GatewayURL, cfg.TraceHeader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	policyDoc := policy.Parse(cfg.Policy)

	router := transport.NewRouter()
	router.Use(
		transport.NewRecoveryMiddleware(nil),
		transport.NewLoggingMiddleware(nil),
		transport.NewTraceMiddleware(cfg.TraceHeader),
		transport.NewCORSMiddleware(),
	)

	// Discovery reads are public; everything else is authenticated and
	// forwarded by the catch-all handler.
	router.Handle("GET "+PathProtectedResource, NewProtectedResourceHandler(disco))
	router.Handle("GET "+PathAuthorizationServer, NewAuthorizationServerHandler(disco))
	router.Handle("GET "+PathOpenIDConfiguration, NewOpenIDConfigurationHandler(disco))
	router.Handle("GET /health", NewHealthHandler())

	router.Handle("/", newHandler(extractor, verifier, policyDoc, forwarder))

	server := transport.NewServer(transport.ServerConfig{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router)

	return server, router, nil
}

// NewHealthHandler creates the health check handler.
func NewHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
