// Package config provides configuration management for the FTL MCP front-end
// components. Configuration is loaded from environment variables with sensible
// defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fastertools/ftl-gateway/internal/authz/core"
)

// Server holds the HTTP listener settings shared by all components.
type Server struct {
	// Addr is the address to bind the HTTP server (e.g., ":8080").
	Addr string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum duration to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
}

// Authorizer holds the complete configuration for the MCP authorizer.
type Authorizer struct {
	Server

	// ProviderType selects the token provider: "jwt" or "static".
	ProviderType string

	// JWTIssuer is the expected issuer (iss) claim. Empty disables the check.
	JWTIssuer string

	// JWTAudience is the expected audience (aud) claim. Required when the
	// issuer is an AuthKit-style URL, otherwise optional.
	JWTAudience string

	// JWTJWKSURI is the JWKS endpoint. Auto-derived from AuthKit-style issuers.
	JWTJWKSURI string

	// JWTPublicKey is a PEM public key override that bypasses JWKS.
	JWTPublicKey string

	// JWTRequiredScopes lists scopes every accepted JWT must carry.
	JWTRequiredScopes []string

	// OAuthAuthorizeEndpoint, OAuthTokenEndpoint, and OAuthUserinfoEndpoint
	// are advertised in the discovery documents when set.
	OAuthAuthorizeEndpoint string
	OAuthTokenEndpoint     string
	OAuthUserinfoEndpoint  string

	// StaticTokens is the raw JSON map from token string to static token info.
	StaticTokens string

	// StaticRequiredScopes lists scopes every accepted static token must carry.
	StaticRequiredScopes []string

	// GatewayURL is the downstream gateway URL, or the literal "none" to
	// disable forwarding.
	GatewayURL string

	// TraceHeader is the header name used for distributed-trace id propagation.
	TraceHeader string

	// Policy is an optional policy document evaluated after token validation.
	Policy string

	// JWKSCacheTTL is how long fetched key sets stay valid in the key-value store.
	JWKSCacheTTL time.Duration
}

// Gateway holds the complete configuration for the MCP gateway.
type Gateway struct {
	Server

	// ComponentNames lists the tool worker components in routing order.
	ComponentNames []string

	// ValidateArguments enables JSON-Schema validation of tools/call arguments.
	ValidateArguments bool

	// CollectorURL is where invocation metric events are posted.
	CollectorURL string

	// MetricsEnabled toggles the invocation tracker middleware.
	MetricsEnabled bool

	// TraceHeader is the header name used for distributed-trace id propagation.
	TraceHeader string
}

// Collector holds the complete configuration for the metrics collector.
type Collector struct {
	Server

	// MaxTools caps the number of distinct tool names tracked before eviction.
	MaxTools int

	// OTELEnabled toggles the OTEL emitter; OTELEndpoint is its target.
	OTELEnabled  bool
	OTELEndpoint string

	// DurableEnabled toggles the durable emitter; DurableEndpoint is its
	// target and DurableMaxAttempts bounds the retry policy.
	DurableEnabled     bool
	DurableEndpoint    string
	DurableMaxAttempts int

	// FallbackEnabled toggles the fallback emitter; FallbackEndpoint is its target.
	FallbackEnabled  bool
	FallbackEndpoint string

	// BreakerFailureThreshold and BreakerResetSeconds tune the fallback
	// emitter's circuit breaker.
	BreakerFailureThreshold int
	BreakerResetSeconds     int
}

// LoadAuthorizer reads the authorizer configuration from environment
// variables, applies defaults, and validates it.
func LoadAuthorizer() (*Authorizer, error) {
	server, err := loadServer(":8080")
	if err != nil {
		return nil, err
	}

	jwksCacheTTL, err := parseDurationWithDefault("MCP_JWKS_CACHE_TTL", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid MCP_JWKS_CACHE_TTL: %w", err)
	}

	cfg := &Authorizer{
		Server: server,

		ProviderType:      getEnvWithDefault("MCP_PROVIDER_TYPE", "jwt"),
		JWTIssuer:         os.Getenv("MCP_JWT_ISSUER"),
		JWTAudience:       os.Getenv("MCP_JWT_AUDIENCE"),
		JWTJWKSURI:        os.Getenv("MCP_JWT_JWKS_URI"),
		JWTPublicKey:      os.Getenv("MCP_JWT_PUBLIC_KEY"),
		JWTRequiredScopes: parseCommaSeparated("MCP_JWT_REQUIRED_SCOPES"),

		OAuthAuthorizeEndpoint: os.Getenv("MCP_OAUTH_AUTHORIZE_ENDPOINT"),
		OAuthTokenEndpoint:     os.Getenv("MCP_OAUTH_TOKEN_ENDPOINT"),
		OAuthUserinfoEndpoint:  os.Getenv("MCP_OAUTH_USERINFO_ENDPOINT"),

		StaticTokens:         os.Getenv("MCP_STATIC_TOKENS"),
		StaticRequiredScopes: parseCommaSeparated("MCP_STATIC_REQUIRED_SCOPES"),

		GatewayURL:   getEnvWithDefault("MCP_GATEWAY_URL", "none"),
		TraceHeader:  getEnvWithDefault("MCP_TRACE_HEADER", "x-trace-id"),
		Policy:       os.Getenv("MCP_POLICY"),
		JWKSCacheTTL: jwksCacheTTL,
	}

	// AuthKit-style issuers publish their JWKS at a fixed location, so the
	// URI can be derived when not configured explicitly.
	if cfg.JWTJWKSURI == "" && IsAuthKitIssuer(cfg.JWTIssuer) {
		cfg.JWTJWKSURI = strings.TrimRight(cfg.JWTIssuer, "/") + "/oauth2/jwks"
	}

	if err := ValidateAuthorizer(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadGateway reads the gateway configuration from environment variables,
// applies defaults, and validates it.
func LoadGateway() (*Gateway, error) {
	server, err := loadServer(":8081")
	if err != nil {
		return nil, err
	}

	components := parseCommaSeparated("COMPONENT_NAMES")
	if components == nil {
		components = parseCommaSeparated("TOOL_COMPONENTS")
	}

	cfg := &Gateway{
		Server: server,

		ComponentNames:    components,
		ValidateArguments: os.Getenv("VALIDATE_ARGUMENTS") == "true",
		CollectorURL:      getEnvWithDefault("MCP_METRICS_COLLECTOR_URL", "http://ftl-metrics.spin.internal/events"),
		MetricsEnabled:    getEnvWithDefault("MCP_METRICS_ENABLED", "true") == "true",
		TraceHeader:       getEnvWithDefault("MCP_TRACE_HEADER", "x-trace-id"),
	}

	if err := ValidateGateway(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadCollector reads the collector configuration from environment variables,
// applies defaults, and validates it.
func LoadCollector() (*Collector, error) {
	server, err := loadServer(":8082")
	if err != nil {
		return nil, err
	}

	maxTools, err := parseIntWithDefault("METRICS_MAX_TOOLS", 10_000)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_MAX_TOOLS: %w", err)
	}

	durableMaxAttempts, err := parseIntWithDefault("METRICS_DURABLE_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_DURABLE_MAX_ATTEMPTS: %w", err)
	}

	failureThreshold, err := parseIntWithDefault("METRICS_BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_BREAKER_FAILURE_THRESHOLD: %w", err)
	}

	resetSeconds, err := parseIntWithDefault("METRICS_BREAKER_RESET_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_BREAKER_RESET_SECONDS: %w", err)
	}

	cfg := &Collector{
		Server: server,

		MaxTools: maxTools,

		OTELEnabled:  getEnvWithDefault("METRICS_OTEL_ENABLED", "false") == "true",
		OTELEndpoint: os.Getenv("OTEL_ENDPOINT"),

		DurableEnabled:     getEnvWithDefault("METRICS_DURABLE_ENABLED", "false") == "true",
		DurableEndpoint:    os.Getenv("METRICS_DURABLE_ENDPOINT"),
		DurableMaxAttempts: durableMaxAttempts,

		FallbackEnabled:  getEnvWithDefault("METRICS_FALLBACK_ENABLED", "false") == "true",
		FallbackEndpoint: os.Getenv("METRICS_FALLBACK_ENDPOINT"),

		BreakerFailureThreshold: failureThreshold,
		BreakerResetSeconds:     resetSeconds,
	}

	if err := ValidateCollector(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsAuthKitIssuer reports whether the issuer follows the AuthKit hosting
// convention, which fixes the JWKS location and requires audience validation.
func IsAuthKitIssuer(issuer string) bool {
	return core.IsAuthKitIssuer(issuer)
}

// loadServer reads the shared server settings.
func loadServer(defaultAddr string) (Server, error) {
	readTimeout, err := parseDurationWithDefault("SERVER_READ_TIMEOUT", "30s")
	if err != nil {
		return Server{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := parseDurationWithDefault("SERVER_WRITE_TIMEOUT", "30s")
	if err != nil {
		return Server{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := parseDurationWithDefault("SERVER_IDLE_TIMEOUT", "120s")
	if err != nil {
		return Server{}, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
	}

	return Server{
		Addr:         getEnvWithDefault("SERVER_ADDR", defaultAddr),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

// getEnvWithDefault returns the environment variable value or the default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseCommaSeparated parses a comma-separated environment variable into a string slice.
// Empty values are filtered out. Returns nil if the environment variable is not set.
func parseCommaSeparated(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// parseDurationWithDefault parses a duration from an environment variable.
// If the variable is not set, it uses the default value.
func parseDurationWithDefault(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		duration, err := time.ParseDuration(defaultValue)
		if err != nil {
			return 0, fmt.Errorf("invalid default duration %q: %w", defaultValue, err)
		}
		return duration, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q: %w", value, err)
	}

	return duration, nil
}

// parseIntWithDefault parses an integer from an environment variable.
// If the variable is not set, it uses the default value.
func parseIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse integer %q: %w", value, err)
	}

	return n, nil
}
