package authorizer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fastertools/ftl-gateway/internal/config"
	"github.com/fastertools/ftl-gateway/internal/transport"
)

// staticConfig builds an authorizer configuration over a static token map.
func staticConfig(t *testing.T, gatewayURL string) *config.Authorizer {
	t.Helper()

	expired := time.Now().Add(-time.Hour).Unix()
	tokens := map[string]any{
		"valid-token": map[string]any{
			"sub":       "user-1",
			"client_id": "client-1",
			"scopes":    []string{"read", "write"},
		},
		"expired-token": map[string]any{
			"sub":        "user-2",
			"client_id":  "client-2",
			"scopes":     []string{"read"},
			"expires_at": expired,
		},
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		t.Fatalf("failed to marshal static tokens: %v", err)
	}

	return &config.Authorizer{
		Server: config.Server{
			Addr:         ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		ProviderType: "static",
		StaticTokens: string(raw),
		GatewayURL:   gatewayURL,
		TraceHeader:  "x-trace-id",
	}
}

// newRouter wires the authorizer and returns its router as an http.Handler.
func newRouter(t *testing.T, cfg *config.Authorizer) transport.Router {
	t.Helper()

	_, router, err := NewServices(cfg)
	if err != nil {
		t.Fatalf("NewServices() unexpected error: %v", err)
	}
	return router
}

func TestAuthorizer_MissingToken(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_token") {
		t.Errorf("body = %q, want invalid_token", rec.Body.String())
	}
	if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer ") {
		t.Errorf("WWW-Authenticate = %q, want Bearer challenge", got)
	}
}

func TestAuthorizer_InvalidToken(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer nope")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_token") {
		t.Errorf("body = %q, want invalid_token", rec.Body.String())
	}
}

// An expired token fails with a body that names the expiration, regardless
// of any policy outcome.
func TestAuthorizer_ExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := staticConfig(t, GatewayDisabled)
	cfg.Policy = "default allow := true"
	router := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer expired-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(strings.ToLower(rec.Body.String()), "expired") {
		t.Errorf("body = %q, want mention of expiration", rec.Body.String())
	}
}

func TestAuthorizer_DenyAllPolicy(t *testing.T) {
	t.Parallel()

	cfg := staticConfig(t, GatewayDisabled)
	cfg.Policy = "default allow := false"
	router := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 under deny-all policy", rec.Code)
	}
}

// Removing the policy re-admits the same token.
func TestAuthorizer_EmptyPolicyAllows(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthorizer_ForwardsWithAuthHeaders(t *testing.T) {
	t.Parallel()

	var received http.Header
	var receivedPath string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		receivedPath = r.URL.Path
		w.Header().Set("X-Downstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	}))
	t.Cleanup(gateway.Close)

	router := newRouter(t, staticConfig(t, gateway.URL+"/mcp-internal"))

	req := httptest.NewRequest(http.MethodPost, "/some/inbound/path?q=1", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("X-Custom", "carried")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// The gateway URL's path wins over the inbound path.
	if receivedPath != "/mcp-internal" {
		t.Errorf("forwarded path = %q, want /mcp-internal", receivedPath)
	}

	if got := received.Get("x-auth-client-id"); got != "client-1" {
		t.Errorf("x-auth-client-id = %q, want client-1", got)
	}
	if got := received.Get("x-auth-user-id"); got != "user-1" {
		t.Errorf("x-auth-user-id = %q, want user-1", got)
	}
	if got := received.Get("x-auth-issuer"); got != "static" {
		t.Errorf("x-auth-issuer = %q, want static", got)
	}
	if got := received.Get("x-auth-scopes"); got != "read write" {
		t.Errorf("x-auth-scopes = %q, want read write", got)
	}
	if got := received.Get("Authorization"); got != "Bearer valid-token" {
		t.Errorf("Authorization = %q, want bearer re-emitted", got)
	}
	if got := received.Get("X-Custom"); got != "carried" {
		t.Errorf("X-Custom = %q, want inbound headers copied", got)
	}

	// Downstream headers are relayed; CORS is re-asserted.
	if got := rec.Header().Get("X-Downstream"); got != "yes" {
		t.Errorf("X-Downstream = %q, want relayed", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestAuthorizer_GatewayDownIs5xx(t *testing.T) {
	t.Parallel()

	// A closed server yields a transport error on the outbound call.
	gateway := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	gatewayURL := gateway.URL
	gateway.Close()

	router := newRouter(t, staticConfig(t, gatewayURL))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code < 500 {
		t.Fatalf("status = %d, want 5xx", rec.Code)
	}
}

func TestAuthorizer_Options(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	for _, path := range []string{"/", "/mcp", "/.well-known/oauth-protected-resource"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("OPTIONS %s status = %d, want 204", path, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("OPTIONS %s Access-Control-Allow-Origin = %q, want *", path, got)
		}
	}
}

func TestAuthorizer_DiscoveryEndpoints(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	paths := []string{
		PathProtectedResource,
		PathAuthorizationServer,
		PathOpenIDConfiguration,
	}

	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Host = "api.example.com"
		req.Header.Set("x-trace-id", "trace-42")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
			continue
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("GET %s Content-Type = %q", path, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("GET %s Access-Control-Allow-Origin = %q, want *", path, got)
		}
		if got := rec.Header().Get("x-trace-id"); got != "trace-42" {
			t.Errorf("GET %s x-trace-id = %q, want trace-42", path, got)
		}

		var doc map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Errorf("GET %s body is not JSON: %v", path, err)
		}
	}
}

func TestAuthorizer_ProtectedResourceUsesHost(t *testing.T) {
	t.Parallel()

	router := newRouter(t, staticConfig(t, GatewayDisabled))

	req := httptest.NewRequest(http.MethodGet, PathProtectedResource, nil)
	req.Host = "mcp.example.com"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got := doc["resource"]; got != "https://mcp.example.com" {
		t.Errorf("resource = %v, want https://mcp.example.com", got)
	}
}
