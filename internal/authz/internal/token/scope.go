package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// extractScopes pulls the granted scopes out of a claim set.
// The scope claim (space-separated string) takes precedence; the scp claim
// (array of strings) is the fallback used by some providers.
func extractScopes(claims jwt.MapClaims) []string {
	if scope, ok := claims["scope"].(string); ok {
		return parseScopes(scope)
	}

	if scp, ok := claims["scp"].([]any); ok {
		var scopes []string
		for _, item := range scp {
			if s, ok := item.(string); ok && s != "" {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}

	return nil
}

// parseScopes parses a space-separated scope string into a slice.
func parseScopes(scope string) []string {
	if scope == "" {
		return nil
	}

	var scopes []string
	for _, part := range strings.Fields(scope) {
		scopes = append(scopes, part)
	}
	return scopes
}

// joinScopes renders a scope list as the space-separated wire form.
func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
