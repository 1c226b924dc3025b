// Package token maps bearer tokens to normalized token info using the
// configured provider.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fastertools/ftl-gateway/internal/authz/authzerr"
	"github.com/fastertools/ftl-gateway/internal/authz/core"
	"github.com/fastertools/ftl-gateway/internal/authz/internal/jwks"
)

var (
	errInvalidEncoding = errors.New("invalid authorization header encoding")
	errNotBearer       = errors.New("authorization header must use Bearer scheme")
)

// Allowed signing algorithms. Only RSA-family signatures are accepted;
// HMAC and "none" are rejected to prevent algorithm confusion.
var allowedAlgorithms = map[string]bool{
	"RS256": true,
	"RS384": true,
	"RS512": true,
	"PS256": true,
	"PS384": true,
	"PS512": true,
}

// Verifier validates bearer tokens against a provider configuration.
type Verifier struct {
	provider *core.ProviderConfig
	keys     *jwks.Cache
	now      func() time.Time
}

// NewVerifier creates a token verifier. The JWKS cache may be nil for the
// static provider.
func NewVerifier(provider *core.ProviderConfig, keys *jwks.Cache) *Verifier {
	return &Verifier{
		provider: provider,
		keys:     keys,
		now:      time.Now,
	}
}

// Verify maps a bearer token to its normalized TokenInfo, or a typed failure.
func (v *Verifier) Verify(ctx context.Context, raw string) (*core.TokenInfo, error) {
	switch {
	case v.provider.Static != nil:
		return v.verifyStatic(raw)
	case v.provider.JWT != nil:
		return v.verifyJWT(ctx, raw)
	default:
		return nil, authzerr.NewConfigError("Verify", "no token provider configured")
	}
}

// verifyJWT validates a JWT: signature via a JWKS-resolved (or PEM-configured)
// RSA key, then standard claims, then scope policy. Expiration is reported
// before scope errors.
func (v *Verifier) verifyJWT(ctx context.Context, raw string) (*core.TokenInfo, error) {
	provider := v.provider.JWT

	// Misconfiguration must fail closed before any token work.
	if provider.RequiresAudience() && provider.Audience == "" {
		return nil, authzerr.NewConfigError("verifyJWT", "audience is required for AuthKit issuers")
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	unverified, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, authzerr.NewInvalidTokenError("verifyJWT", fmt.Errorf("invalid JWT header: %w", err))
	}

	alg, _ := unverified.Header["alg"].(string)
	if alg == "" {
		alg = "none"
	}
	if !allowedAlgorithms[alg] {
		return nil, authzerr.NewUnsupportedAlgorithmError("verifyJWT", alg)
	}

	kid, _ := unverified.Header["kid"].(string)

	key, err := v.resolveKey(ctx, provider, kid)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
	}
	if provider.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(provider.Issuer))
	}
	if provider.Audience != "" {
		opts = append(opts, jwt.WithAudience(provider.Audience))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authzerr.NewExpiredTokenError("verifyJWT")
		}
		return nil, authzerr.NewInvalidTokenError("verifyJWT", fmt.Errorf("JWT validation failed: %w", err))
	}

	scopes := extractScopes(claims)
	if missing := missingScopes(scopes, provider.RequiredScopes); len(missing) > 0 {
		return nil, authzerr.NewMissingScopesError("verifyJWT", missing)
	}

	subject, _ := claims["sub"].(string)
	clientID, _ := claims["client_id"].(string)
	if clientID == "" {
		clientID = subject
	}
	issuer, _ := claims["iss"].(string)

	return &core.TokenInfo{
		ClientID: clientID,
		Subject:  subject,
		Issuer:   issuer,
		Scopes:   scopes,
		Claims:   map[string]any(claims),
		RawToken: raw,
	}, nil
}

// resolveKey returns the RSA verification key, either from the PEM override
// or by JWKS lookup with kid selection.
func (v *Verifier) resolveKey(ctx context.Context, provider *core.JWTProvider, kid string) (any, error) {
	if provider.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(provider.PublicKeyPEM))
		if err != nil {
			return nil, authzerr.NewConfigError("resolveKey", fmt.Sprintf("invalid configured public key: %v", err))
		}
		return key, nil
	}

	set, err := v.keys.Get(ctx, provider.JWKSURI)
	if err != nil {
		return nil, err
	}

	return jwks.FindKey(set, kid)
}

// verifyStatic looks the token up in the static map. Expiration is checked
// before scope policy so an expired token fails even when scopes would allow it.
func (v *Verifier) verifyStatic(raw string) (*core.TokenInfo, error) {
	provider := v.provider.Static

	info, ok := provider.Tokens[raw]
	if !ok {
		return nil, authzerr.NewInvalidTokenError("verifyStatic", errors.New("Token not found"))
	}

	if info.ExpiresAt != nil && *info.ExpiresAt < v.now().Unix() {
		return nil, authzerr.NewExpiredTokenError("verifyStatic")
	}

	tokenInfo := &core.TokenInfo{
		ClientID: info.ClientID,
		Subject:  info.Sub,
		Issuer:   core.IssuerStatic,
		Scopes:   info.Scopes,
		RawToken: raw,
	}

	if missing := tokenInfo.MissingScopes(provider.RequiredScopes); len(missing) > 0 {
		return nil, authzerr.NewMissingScopesError("verifyStatic", missing)
	}

	claims := map[string]any{
		"sub":       info.Sub,
		"client_id": info.ClientID,
		"iss":       core.IssuerStatic,
		"scope":     joinScopes(info.Scopes),
	}
	for key, value := range info.AdditionalClaims {
		claims[key] = value
	}
	tokenInfo.Claims = claims

	return tokenInfo, nil
}

// missingScopes returns required scopes not present in scopes.
func missingScopes(scopes, required []string) []string {
	info := core.TokenInfo{Scopes: scopes}
	return info.MissingScopes(required)
}
