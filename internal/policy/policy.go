// Package policy evaluates the optional authorization policy document applied
// after token verification. The document uses a small subset of a
// Rego-style grammar: a "default allow" declaration optionally followed by
// allow rules matching token attributes.
package policy

import (
	"strings"

	"github.com/fastertools/ftl-gateway/internal/authz"
	"github.com/fastertools/ftl-gateway/internal/authz/authzerr"
)

// Document is a parsed policy document.
type Document struct {
	defaultAllow bool
	subjects     map[string]struct{}
	clientIDs    map[string]struct{}
}

// Parse parses a policy document. An empty document yields a nil Document,
// which allows every request.
//
// Recognized lines:
//
//	default allow := true|false
//	allow { input.sub == "<subject>" }
//	allow { input.client_id == "<client id>" }
//
// Unrecognized lines are ignored so that a deny-all document stays deny-all
// even when it carries rules this evaluator does not understand.
func Parse(doc string) *Document {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}

	parsed := &Document{
		defaultAllow: true,
		subjects:     make(map[string]struct{}),
		clientIDs:    make(map[string]struct{}),
	}

	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "default allow"):
			parsed.defaultAllow = strings.HasSuffix(line, "true")
		case strings.HasPrefix(line, "allow"):
			if value, ok := ruleValue(line, "input.sub"); ok {
				parsed.subjects[value] = struct{}{}
			}
			if value, ok := ruleValue(line, "input.client_id"); ok {
				parsed.clientIDs[value] = struct{}{}
			}
		}
	}

	return parsed
}

// ruleValue extracts the quoted comparison value from an allow rule like
// `allow { input.sub == "user-1" }`.
func ruleValue(line, field string) (string, bool) {
	idx := strings.Index(line, field)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(field):]
	start := strings.Index(rest, `"`)
	if start < 0 {
		return "", false
	}
	end := strings.Index(rest[start+1:], `"`)
	if end < 0 {
		return "", false
	}
	return rest[start+1 : start+1+end], true
}

// Evaluate decides whether the authenticated request is allowed.
// A nil document allows everything. Denial is reported as a Forbidden
// DomainError, which the authorizer maps to 401.
func (d *Document) Evaluate(info *authz.TokenInfo) error {
	if d == nil {
		return nil
	}

	if d.defaultAllow {
		return nil
	}

	if _, ok := d.subjects[info.Subject]; ok {
		return nil
	}
	if _, ok := d.clientIDs[info.ClientID]; ok {
		return nil
	}

	return authzerr.NewPolicyDeniedError("Evaluate")
}
