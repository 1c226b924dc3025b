package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fastertools/ftl-gateway/internal/transport"
	"github.com/fastertools/ftl-gateway/pkg/mcp"
)

// httpHandler terminates the gateway's HTTP surface: POST carries JSON-RPC,
// OPTIONS answers preflight, everything else is 405. JSON-RPC level errors
// never escape as non-200 responses.
type httpHandler struct {
	handler Handler
}

// NewHTTPHandler creates the gateway's HTTP handler around a dispatcher.
func NewHTTPHandler(handler Handler) http.Handler {
	if handler == nil {
		panic("handler cannot be nil")
	}
	return &httpHandler{handler: handler}
}

// ServeHTTP handles the MCP endpoint.
func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handlePost parses the JSON-RPC envelope and dispatches it.
func (h *httpHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		// Body read failure is a transport-layer problem, the one case that
		// escapes the JSON-RPC envelope.
		slog.Error("failed to read request body", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body = bytes.TrimSpace(body)

	if len(body) == 0 {
		writeResponse(w, NewErrorResponse(nil, CodeParseError, "Parse error", nil))
		return
	}

	// Batches are unsupported.
	if body[0] == '[' {
		writeResponse(w, NewErrorResponse(nil, CodeParseError, "Parse error", "batch requests are not supported"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, NewErrorResponse(nil, CodeParseError, "Parse error", nil))
		return
	}

	if req.JSONRPC == "" {
		writeResponse(w, NewErrorResponse(nil, CodeParseError, "Parse error", nil))
		return
	}
	if req.JSONRPC != mcp.JSONRPCVersion {
		writeResponse(w, NewErrorResponse(req.ID, CodeInvalidRequest, "Invalid request", nil))
		return
	}
	if req.Method == "" {
		writeResponse(w, NewErrorResponse(nil, CodeParseError, "Parse error", nil))
		return
	}

	ctx := ContextWithAuth(r.Context(), authFromHeaders(r.Header))

	resp := h.handler.HandleRequest(ctx, &req)
	if resp == nil {
		// Notification: empty body, never a JSON-RPC response.
		w.WriteHeader(http.StatusOK)
		return
	}

	writeResponse(w, resp)
}

// writeResponse sends a JSON-RPC response with HTTP 200.
func writeResponse(w http.ResponseWriter, resp *Response) {
	transport.WriteJSON(w, http.StatusOK, resp)
}

// authFromHeaders reads the normalized auth context the authorizer injected.
func authFromHeaders(h http.Header) AuthContext {
	return AuthContext{
		ClientID: h.Get("x-auth-client-id"),
		UserID:   h.Get("x-auth-user-id"),
		Issuer:   h.Get("x-auth-issuer"),
		RawToken: bearerToken(h),
	}
}

// bearerToken extracts a bearer credential from the internal hop. Unlike the
// authorizer's strict extraction, this helper tolerates the lowercase scheme
// some runtimes use when re-emitting the header.
func bearerToken(h http.Header) string {
	value := h.Get("Authorization")
	for _, prefix := range []string{"Bearer ", "bearer "} {
		if token, ok := strings.CutPrefix(value, prefix); ok {
			return token
		}
	}
	return ""
}
