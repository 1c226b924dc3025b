package token

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/fastertools/ftl-gateway/internal/authz/authzerr"
)

// ExtractBearer extracts the bearer token from a request's Authorization
// header. The header is located case-insensitively; the value must be valid
// UTF-8 and begin with the case-sensitive prefix "Bearer ".
//
// The authorizer is strict about the prefix. Lowercase "bearer " tolerance is
// a gateway-side affordance only, not a rule of this component.
func ExtractBearer(h http.Header) (string, error) {
	value := h.Get("Authorization")
	if value == "" {
		return "", authzerr.NewMissingTokenError("ExtractBearer")
	}

	if !utf8.ValidString(value) {
		return "", authzerr.NewInvalidTokenError("ExtractBearer", errInvalidEncoding)
	}

	token, ok := strings.CutPrefix(value, "Bearer ")
	if !ok || token == "" {
		return "", authzerr.NewInvalidTokenError("ExtractBearer", errNotBearer)
	}

	return token, nil
}
