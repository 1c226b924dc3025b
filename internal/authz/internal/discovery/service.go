// Package discovery builds the OAuth 2.0 / OIDC discovery documents served
// on the authorizer's well-known endpoints.
package discovery

import (
	"github.com/fastertools/ftl-gateway/internal/authz/core"
)

// Service renders discovery documents from the provider configuration.
type Service struct {
	issuer    string
	jwksURI   string
	endpoints core.OAuthEndpoints
}

// NewService creates a discovery service for the given provider.
func NewService(provider *core.ProviderConfig) *Service {
	s := &Service{}

	switch {
	case provider.JWT != nil:
		s.issuer = provider.JWT.Issuer
		s.jwksURI = provider.JWT.JWKSURI
		if provider.JWT.Endpoints != nil {
			s.endpoints = *provider.JWT.Endpoints
		}
	case provider.Static != nil:
		s.issuer = core.IssuerStatic
	}

	return s
}

// ProtectedResource returns the OAuth protected resource metadata.
// The resource identity is derived from the request's Host header.
func (s *Service) ProtectedResource(host string) map[string]any {
	return map[string]any{
		"resource": "https://" + host,
		"authorization_servers": []map[string]any{
			{
				"issuer":   s.issuer,
				"jwks_uri": s.jwksURI,
			},
		},
		"authentication_methods": map[string]any{
			"bearer": map[string]any{
				"required":       true,
				"algs_supported": []string{"RS256"},
			},
		},
	}
}

// AuthorizationServer returns the OAuth authorization server metadata.
func (s *Service) AuthorizationServer() map[string]any {
	return map[string]any{
		"issuer":                                s.issuer,
		"authorization_endpoint":                s.endpoints.Authorize,
		"token_endpoint":                        s.endpoints.Token,
		"userinfo_endpoint":                     s.endpoints.Userinfo,
		"jwks_uri":                              s.jwksURI,
		"response_types_supported":              []string{"code", "token", "id_token"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
		"claims_supported":                      []string{"sub", "iss", "aud", "exp", "iat", "scope", "client_id"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
	}
}

// OpenIDConfiguration returns the OIDC configuration document, a superset of
// the authorization server metadata.
func (s *Service) OpenIDConfiguration() map[string]any {
	return map[string]any{
		"issuer":                                s.issuer,
		"authorization_endpoint":                s.endpoints.Authorize,
		"token_endpoint":                        s.endpoints.Token,
		"userinfo_endpoint":                     s.endpoints.Userinfo,
		"jwks_uri":                              s.jwksURI,
		"response_types_supported":              []string{"code", "token", "id_token", "code id_token"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email", "offline_access"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
		"claims_supported": []string{
			"sub", "iss", "aud", "exp", "iat", "auth_time",
			"nonce", "acr", "amr", "azp", "name", "given_name",
			"family_name", "middle_name", "nickname", "preferred_username",
			"profile", "picture", "website", "email", "email_verified",
			"gender", "birthdate", "zoneinfo", "locale", "phone_number",
			"phone_number_verified", "address", "updated_at",
		},
		"grant_types_supported":            []string{"authorization_code", "implicit", "refresh_token"},
		"acr_values_supported":             []string{},
		"code_challenge_methods_supported": []string{"S256"},
	}
}
