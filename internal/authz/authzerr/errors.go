// Package authzerr provides authorization error constructors.
// This package is separate from internal/authz to avoid import cycles
// when internal packages need to create authorization errors.
package authzerr

import (
	"fmt"

	ierrors "github.com/fastertools/ftl-gateway/internal/errors"
)

// Domain identifier for authorization errors.
const domainAuthz = "authz"

// NewMissingTokenError creates a DomainError for an absent Authorization header.
func NewMissingTokenError(op string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrUnauthorized, fmt.Errorf("Missing authorization header"))
}

// NewInvalidTokenError creates a DomainError for an invalid token with context.
func NewInvalidTokenError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrInvalidToken, err).
		WithContext("oauth_error", ierrors.ErrorCodeInvalidToken)
}

// NewExpiredTokenError creates a DomainError for an expired token.
func NewExpiredTokenError(op string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrExpiredToken, nil).
		WithContext("oauth_error", ierrors.ErrorCodeInvalidToken).
		WithContext("reason", "token_expired")
}

// NewUnsupportedAlgorithmError creates a DomainError for a signing algorithm
// outside the allowed set.
func NewUnsupportedAlgorithmError(op string, algorithm string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrInvalidToken, fmt.Errorf("unsupported algorithm: %s", algorithm)).
		WithContext("oauth_error", ierrors.ErrorCodeInvalidToken).
		WithContext("algorithm", algorithm)
}

// NewKeyNotFoundError creates a DomainError for a JWKS key resolution failure.
func NewKeyNotFoundError(op string, detail string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrInvalidToken, fmt.Errorf("%s", detail)).
		WithContext("oauth_error", ierrors.ErrorCodeInvalidToken)
}

// NewMissingScopesError creates a DomainError for a token lacking required scopes.
func NewMissingScopesError(op string, missing []string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrUnauthorized, fmt.Errorf("Token missing required scopes: %v", missing)).
		WithContext("oauth_error", ierrors.ErrorCodeInsufficientScope).
		WithContext("missing_scopes", missing)
}

// NewPolicyDeniedError creates a DomainError for a policy denial.
func NewPolicyDeniedError(op string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrForbidden, fmt.Errorf("request denied by policy"))
}

// NewJWKSFetchError creates a DomainError for a JWKS fetch failure.
func NewJWKSFetchError(op string, jwksURI string, err error) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrInternal, err).
		WithContext("jwks_uri", jwksURI)
}

// NewConfigError creates a DomainError for a configuration problem discovered
// at request time.
func NewConfigError(op string, detail string) *ierrors.DomainError {
	return ierrors.New(domainAuthz, op, ierrors.ErrInternal, fmt.Errorf("%s", detail)).
		WithContext("reason", "configuration")
}
