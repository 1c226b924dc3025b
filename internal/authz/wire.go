package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fastertools/ftl-gateway/internal/authz/core"
	"github.com/fastertools/ftl-gateway/internal/authz/internal/discovery"
	"github.com/fastertools/ftl-gateway/internal/authz/internal/jwks"
	"github.com/fastertools/ftl-gateway/internal/authz/internal/token"
	"github.com/fastertools/ftl-gateway/internal/config"
)

// verifierAdapter adapts token.Verifier to the TokenVerifier interface.
type verifierAdapter struct {
	verifier *token.Verifier
}

func (a *verifierAdapter) Verify(ctx context.Context, raw string) (*TokenInfo, error) {
	return a.verifier.Verify(ctx, raw)
}

// extractorAdapter adapts the package-level extraction helper.
type extractorAdapter struct{}

func (extractorAdapter) ExtractBearer(h http.Header) (string, error) {
	return token.ExtractBearer(h)
}

// discoveryAdapter adapts discovery.Service to the Discovery interface.
type discoveryAdapter struct {
	service *discovery.Service
}

func (a *discoveryAdapter) ProtectedResource(host string) map[string]any {
	return a.service.ProtectedResource(host)
}

func (a *discoveryAdapter) AuthorizationServer() map[string]any {
	return a.service.AuthorizationServer()
}

func (a *discoveryAdapter) OpenIDConfiguration() map[string]any {
	return a.service.OpenIDConfiguration()
}

// NewProvider builds the tagged provider variant from the authorizer
// configuration, parsing the static token map when selected.
func NewProvider(cfg *config.Authorizer) (*ProviderConfig, error) {
	switch cfg.ProviderType {
	case "jwt":
		provider := &core.JWTProvider{
			Issuer:         cfg.JWTIssuer,
			Audience:       cfg.JWTAudience,
			JWKSURI:        cfg.JWTJWKSURI,
			PublicKeyPEM:   cfg.JWTPublicKey,
			RequiredScopes: cfg.JWTRequiredScopes,
		}
		if cfg.OAuthAuthorizeEndpoint != "" || cfg.OAuthTokenEndpoint != "" || cfg.OAuthUserinfoEndpoint != "" {
			provider.Endpoints = &core.OAuthEndpoints{
				Authorize: cfg.OAuthAuthorizeEndpoint,
				Token:     cfg.OAuthTokenEndpoint,
				Userinfo:  cfg.OAuthUserinfoEndpoint,
			}
		}
		return &ProviderConfig{JWT: provider}, nil

	case "static":
		tokens := make(map[string]StaticTokenInfo)
		if err := json.Unmarshal([]byte(cfg.StaticTokens), &tokens); err != nil {
			return nil, fmt.Errorf("invalid MCP_STATIC_TOKENS: %w", err)
		}
		return &ProviderConfig{
			Static: &core.StaticProvider{
				Tokens:         tokens,
				RequiredScopes: cfg.StaticRequiredScopes,
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.ProviderType)
	}
}

// NewKeyStore creates the in-process key-value store backing the JWKS cache.
func NewKeyStore() KeyStore {
	return core.NewMemoryKeyStore()
}

// NewTokenVerifier creates a token verifier for the provider.
// The key store and TTL configure the JWKS cache used by the JWT path.
func NewTokenVerifier(provider *ProviderConfig, store KeyStore, jwksTTL time.Duration) TokenVerifier {
	cache := jwks.NewCache(store, jwksTTL)
	return &verifierAdapter{verifier: token.NewVerifier(provider, cache)}
}

// NewBearerExtractor creates the strict bearer extraction helper.
func NewBearerExtractor() BearerExtractor {
	return extractorAdapter{}
}

// NewDiscovery creates the discovery document service for the provider.
func NewDiscovery(provider *ProviderConfig) Discovery {
	return &discoveryAdapter{service: discovery.NewService(provider)}
}

// NewAuthServices creates all authorization services from the configuration.
// This is a convenience function for dependency injection.
func NewAuthServices(cfg *config.Authorizer) (TokenVerifier, BearerExtractor, Discovery, KeyStore, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store := NewKeyStore()
	verifier := NewTokenVerifier(provider, store, cfg.JWKSCacheTTL)
	extractor := NewBearerExtractor()
	disco := NewDiscovery(provider)

	return verifier, extractor, disco, store, nil
}
