package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ContentTypeJSON is the JSON media type used on every component surface.
const ContentTypeJSON = "application/json"

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}
