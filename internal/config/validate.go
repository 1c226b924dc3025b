package config

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ValidateAuthorizer checks that the authorizer configuration is valid and
// complete. It returns an error if required fields are missing or invalid.
//
// The AuthKit audience rule is also rechecked per request by the token
// verifier so that a misconfigured deployment fails with a 500 rather than
// accepting unvalidated tokens.
func ValidateAuthorizer(cfg *Authorizer) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	switch cfg.ProviderType {
	case "jwt":
		if err := validateJWTProvider(cfg); err != nil {
			return fmt.Errorf("invalid jwt provider config: %w", err)
		}
	case "static":
		if err := validateStaticProvider(cfg); err != nil {
			return fmt.Errorf("invalid static provider config: %w", err)
		}
	default:
		return fmt.Errorf("MCP_PROVIDER_TYPE must be \"jwt\" or \"static\", got %q", cfg.ProviderType)
	}

	if cfg.GatewayURL != "none" {
		parsed, err := url.Parse(cfg.GatewayURL)
		if err != nil {
			return fmt.Errorf("MCP_GATEWAY_URL is not a valid URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("MCP_GATEWAY_URL must use http or https, got %q", parsed.Scheme)
		}
	}

	if cfg.TraceHeader == "" {
		return fmt.Errorf("MCP_TRACE_HEADER cannot be empty")
	}

	return nil
}

// validateJWTProvider validates the JWT provider fields.
func validateJWTProvider(cfg *Authorizer) error {
	if cfg.JWTJWKSURI == "" && cfg.JWTPublicKey == "" {
		return fmt.Errorf("MCP_JWT_JWKS_URI or MCP_JWT_PUBLIC_KEY is required")
	}

	if cfg.JWTJWKSURI != "" {
		parsed, err := url.Parse(cfg.JWTJWKSURI)
		if err != nil {
			return fmt.Errorf("MCP_JWT_JWKS_URI is not a valid URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("MCP_JWT_JWKS_URI must use http or https, got %q", parsed.Scheme)
		}
	}

	if IsAuthKitIssuer(cfg.JWTIssuer) && cfg.JWTAudience == "" {
		return fmt.Errorf("MCP_JWT_AUDIENCE is required when the issuer is an AuthKit URL")
	}

	return nil
}

// validateStaticProvider validates the static provider fields.
func validateStaticProvider(cfg *Authorizer) error {
	if cfg.StaticTokens == "" {
		return fmt.Errorf("MCP_STATIC_TOKENS is required for the static provider")
	}

	// The full parse happens in the authz layer; here the document only needs
	// to be well-formed JSON so deployment mistakes surface at startup.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cfg.StaticTokens), &raw); err != nil {
		return fmt.Errorf("MCP_STATIC_TOKENS is not a valid JSON object: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("MCP_STATIC_TOKENS must contain at least one token")
	}

	return nil
}

// ValidateGateway checks that the gateway configuration is valid.
func ValidateGateway(cfg *Gateway) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	for _, name := range cfg.ComponentNames {
		if err := validateComponentName(name); err != nil {
			return err
		}
	}

	if cfg.MetricsEnabled && cfg.CollectorURL == "" {
		return fmt.Errorf("MCP_METRICS_COLLECTOR_URL cannot be empty when metrics are enabled")
	}

	return nil
}

// validateComponentName rejects names that cannot appear in a host-internal URL.
func validateComponentName(name string) error {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("invalid component name %q: character %q not allowed", name, r)
		}
	}
	return nil
}

// ValidateCollector checks that the collector configuration is valid.
func ValidateCollector(cfg *Collector) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if cfg.MaxTools <= 0 {
		return fmt.Errorf("METRICS_MAX_TOOLS must be positive, got %d", cfg.MaxTools)
	}

	if cfg.OTELEnabled && cfg.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when the OTEL emitter is enabled")
	}
	if cfg.DurableEnabled && cfg.DurableEndpoint == "" {
		return fmt.Errorf("METRICS_DURABLE_ENDPOINT is required when the durable emitter is enabled")
	}
	if cfg.DurableMaxAttempts <= 0 {
		return fmt.Errorf("METRICS_DURABLE_MAX_ATTEMPTS must be positive, got %d", cfg.DurableMaxAttempts)
	}
	if cfg.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("METRICS_BREAKER_FAILURE_THRESHOLD must be positive, got %d", cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerResetSeconds <= 0 {
		return fmt.Errorf("METRICS_BREAKER_RESET_SECONDS must be positive, got %d", cfg.BreakerResetSeconds)
	}

	return nil
}

// validateServer validates the shared server fields.
func validateServer(s Server) error {
	if s.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("SERVER_IDLE_TIMEOUT must be positive")
	}
	return nil
}
