package authorizer

import (
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/authz"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// Well-known discovery paths served by the authorizer.
const (
	PathProtectedResource   = "/.well-known/oauth-protected-resource"
	PathAuthorizationServer = "/.well-known/oauth-authorization-server"
	PathOpenIDConfiguration = "/.well-known/openid-configuration"
)

// discoveryHandler serves one canned discovery document.
type discoveryHandler struct {
	document func(r *http.Request) map[string]any
}

func (h *discoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, h.document(r))
}

// NewProtectedResourceHandler serves the OAuth protected resource metadata.
func NewProtectedResourceHandler(disco authz.Discovery) http.Handler {
	return &discoveryHandler{
		document: func(r *http.Request) map[string]any {
			return disco.ProtectedResource(r.Host)
		},
	}
}

// NewAuthorizationServerHandler serves the OAuth authorization server metadata.
func NewAuthorizationServerHandler(disco authz.Discovery) http.Handler {
	return &discoveryHandler{
		document: func(*http.Request) map[string]any {
			return disco.AuthorizationServer()
		},
	}
}

// NewOpenIDConfigurationHandler serves the OIDC configuration document.
func NewOpenIDConfigurationHandler(disco authz.Discovery) http.Handler {
	return &discoveryHandler{
		document: func(*http.Request) map[string]any {
			return disco.OpenIDConfiguration()
		},
	}
}
