package authorizer

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fastertools/ftl-gateway/internal/authz"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// GatewayDisabled is the sentinel gateway URL that disables forwarding,
// used in testing and when the authorizer is deployed standalone.
const GatewayDisabled = "none"

// Forwarder issues the derived outbound request toward the gateway for an
// authorized inbound request.
type Forwarder struct {
	gatewayURL  *url.URL
	traceHeader string
	httpClient  *http.Client
}

// NewForwarder creates a request forwarder for the given gateway URL.
// The literal "none" yields a disabled forwarder that acknowledges
// authorized requests without a downstream call.
func NewForwarder(gatewayURL, traceHeader string) (*Forwarder, error) {
	f := &Forwarder{
		traceHeader: traceHeader,
		httpClient:  &http.Client{},
	}

	if gatewayURL == GatewayDisabled {
		return f, nil
	}

	parsed, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	f.gatewayURL = parsed

	return f, nil
}

// Forward rewrites the authorized request toward the gateway and relays the
// response. The authorizer is the authority for the x-auth-* headers even
// when equal values arrived on the inbound request.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, info *authz.TokenInfo) {
	if f.gatewayURL == nil {
		transport.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "authorized",
			"client_id": info.ClientID,
		})
		return
	}

	// The gateway URL supplies scheme, authority, and path; the inbound path
	// and query are not forwarded.
	outboundURL := &url.URL{
		Scheme: f.gatewayURL.Scheme,
		Host:   f.gatewayURL.Host,
		Path:   f.gatewayURL.Path,
	}

	outbound, err := http.NewRequestWithContext(r.Context(), r.Method, outboundURL.String(), r.Body)
	if err != nil {
		slog.Error("failed to build gateway request", "error", err)
		transport.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal_error",
		})
		return
	}

	// Copy every inbound header verbatim, then assert the auth context.
	for name, values := range r.Header {
		for _, value := range values {
			outbound.Header.Add(name, value)
		}
	}
	outbound.Header.Set("x-auth-client-id", info.ClientID)
	outbound.Header.Set("x-auth-user-id", info.Subject)
	outbound.Header.Set("x-auth-issuer", info.Issuer)
	if len(info.Scopes) > 0 {
		outbound.Header.Set("x-auth-scopes", strings.Join(info.Scopes, " "))
	}

	// Re-emit the bearer so the downstream can re-verify if desired.
	outbound.Header.Set("Authorization", "Bearer "+info.RawToken)

	resp, err := f.httpClient.Do(outbound)
	if err != nil {
		slog.Error("gateway request failed", "error", err)
		transport.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error": "internal_error",
		})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	// Relay downstream headers, but CORS is re-asserted with this
	// component's values and the trace id is echoed from the request.
	for name, values := range resp.Header {
		if isCORSHeader(name) || strings.EqualFold(name, f.traceHeader) {
			continue
		}
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	transport.SetCORSHeaders(w.Header())
	if traceID := r.Header.Get(f.traceHeader); traceID != "" {
		w.Header().Set(f.traceHeader, traceID)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("failed to relay gateway response body", "error", err)
	}
}

// isCORSHeader reports whether the header is one the authorizer overrides.
func isCORSHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Access-Control-Allow-Headers":
		return true
	}
	return false
}
