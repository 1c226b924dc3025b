package errors

import (
	"fmt"
	"strings"
)

// OAuth 2.0 error codes used on the authorizer's wire surface.
const (
	// ErrorCodeInvalidToken indicates the access token is missing, invalid,
	// expired, or revoked. Per RFC 6750 every 401 the authorizer emits uses
	// this code.
	ErrorCodeInvalidToken = "invalid_token"

	// ErrorCodeInsufficientScope indicates the token lacks required scope(s).
	ErrorCodeInsufficientScope = "insufficient_scope"

	// ErrorCodeInvalidRequest indicates the request is malformed.
	ErrorCodeInvalidRequest = "invalid_request"
)

// OAuthError represents an RFC 6749 compliant OAuth error response.
// It is used to format 401 bodies and WWW-Authenticate header values.
type OAuthError struct {
	// ErrorCode is the OAuth error code (e.g., "invalid_token").
	ErrorCode string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (e *OAuthError) Error() string {
	if e.ErrorDescription != "" {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorDescription)
	}
	return e.ErrorCode
}

// NewOAuthError creates a new OAuthError with the given error code and description.
func NewOAuthError(errorCode, errorDescription string) *OAuthError {
	return &OAuthError{
		ErrorCode:        errorCode,
		ErrorDescription: errorDescription,
	}
}

// WWWAuthenticate formats the OAuthError as a WWW-Authenticate header value
// per RFC 6750.
//
// Example output:
//
//	Bearer error="invalid_token", error_description="Token has expired"
func (e *OAuthError) WWWAuthenticate() string {
	parts := []string{fmt.Sprintf(`error="%s"`, escapeQuotes(e.ErrorCode))}

	if e.ErrorDescription != "" {
		parts = append(parts, fmt.Sprintf(`error_description="%s"`, escapeQuotes(e.ErrorDescription)))
	}

	return "Bearer " + strings.Join(parts, ", ")
}

// escapeQuotes escapes double quotes in strings for use in header values.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
