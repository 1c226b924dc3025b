// Package authz provides bearer-token authentication for the MCP authorizer:
// JWT validation with JWKS-resolved RSA keys, a static token map for
// development, and the OAuth discovery documents derived from the provider
// configuration.
package authz

import (
	"context"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/authz/core"
)

// Re-export the core types so callers only import this package.

// TokenInfo is the normalized outcome of successful authentication.
type TokenInfo = core.TokenInfo

// ProviderConfig is the tagged jwt/static provider variant.
type ProviderConfig = core.ProviderConfig

// JWTProvider configures JWT verification against an OIDC issuer.
type JWTProvider = core.JWTProvider

// StaticProvider configures the static token map used for development.
type StaticProvider = core.StaticProvider

// StaticTokenInfo describes one entry in the static token map.
type StaticTokenInfo = core.StaticTokenInfo

// OAuthEndpoints are the upstream authorization server endpoints.
type OAuthEndpoints = core.OAuthEndpoints

// KeyStore is the key-value store abstraction backing the JWKS cache.
type KeyStore = core.KeyStore

// TokenVerifier maps a bearer token to a TokenInfo, or a typed failure.
// Implementations must check expiration before scope policy: an expired
// token fails even when policy would allow it.
type TokenVerifier interface {
	// Verify validates the bearer token against the configured provider.
	//
	// Failures are DomainErrors from internal/errors with kinds
	// ErrUnauthorized, ErrInvalidToken, ErrExpiredToken, or ErrInternal.
	Verify(ctx context.Context, token string) (*TokenInfo, error)
}

// BearerExtractor locates and strips the bearer credential from a request.
type BearerExtractor interface {
	// ExtractBearer returns the bearer token from the Authorization header.
	// A missing header fails with ErrUnauthorized; a malformed value with
	// ErrInvalidToken.
	ExtractBearer(h http.Header) (string, error)
}

// Discovery builds the OAuth 2.0 / OIDC discovery documents served on the
// authorizer's well-known endpoints.
type Discovery interface {
	// ProtectedResource returns the OAuth protected resource metadata for
	// the given request host.
	ProtectedResource(host string) map[string]any

	// AuthorizationServer returns the OAuth authorization server metadata.
	AuthorizationServer() map[string]any

	// OpenIDConfiguration returns the OIDC configuration document.
	OpenIDConfiguration() map[string]any
}
