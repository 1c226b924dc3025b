// Package authorizer terminates bearer-token authentication for incoming MCP
// requests and forwards authorized requests to the downstream gateway with a
// normalized authentication context. It also serves the OAuth discovery
// endpoints derived from the provider configuration.
package authorizer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/authz"
	ierrors "github.com/fastertools/ftl-gateway/internal/errors"
	"github.com/fastertools/ftl-gateway/internal/policy"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// handler is the authorizer's catch-all protected handler: every request that
// is not a discovery read is authenticated and forwarded.
type handler struct {
	extractor authz.BearerExtractor
	verifier  authz.TokenVerifier
	policy    *policy.Document
	forwarder *Forwarder
}

// newHandler creates the protected catch-all handler.
func newHandler(
	extractor authz.BearerExtractor,
	verifier authz.TokenVerifier,
	policyDoc *policy.Document,
	forwarder *Forwarder,
) http.Handler {
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if forwarder == nil {
		panic("forwarder cannot be nil")
	}

	return &handler{
		extractor: extractor,
		verifier:  verifier,
		policy:    policyDoc,
		forwarder: forwarder,
	}
}

// ServeHTTP authenticates the request and forwards it downstream.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	token, err := h.extractor.ExtractBearer(r.Header)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	info, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if err := h.policy.Evaluate(info); err != nil {
		writeAuthError(w, err)
		return
	}

	h.forwarder.Forward(w, r, info)
}

// writeAuthError maps an authentication failure onto the wire: every token
// failure is a 401 with an invalid_token body and WWW-Authenticate header,
// while internal failures (JWKS fetch, configuration) are an opaque 500.
func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, ierrors.ErrInternal) {
		slog.Error("authorization internal error", "error", err)
		transport.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal_error",
		})
		return
	}

	oauthErr := ierrors.NewOAuthError(ierrors.ErrorCodeInvalidToken, describe(err))

	slog.Warn("unauthorized request", "error", err)

	w.Header().Set("WWW-Authenticate", oauthErr.WWWAuthenticate())
	transport.WriteJSON(w, http.StatusUnauthorized, oauthErr)
}

// describe renders the client-facing error description from a DomainError.
func describe(err error) string {
	var domainErr *ierrors.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Err != nil {
			return domainErr.Err.Error()
		}
		if domainErr.Kind != nil {
			return domainErr.Kind.Error()
		}
	}
	return err.Error()
}
