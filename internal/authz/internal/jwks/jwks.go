// Package jwks provides JSON Web Key Set fetching, caching, and key selection
// for the token verifier.
package jwks

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/fastertools/ftl-gateway/internal/authz/authzerr"
)

// Set represents a JSON Web Key Set as published by an OIDC provider.
type Set struct {
	Keys []Key `json:"keys"`
}

// Key represents a single JSON Web Key. Only RSA signature keys are supported.
type Key struct {
	// KeyType is the key family (RSA, EC, ...).
	KeyType string `json:"kty"`

	// Use is the intended key use; absent or "sig" is accepted.
	Use string `json:"use,omitempty"`

	// Algorithm is the intended signing algorithm, if advertised.
	Algorithm string `json:"alg,omitempty"`

	// KeyID identifies the key for kid-based selection.
	KeyID string `json:"kid,omitempty"`

	// N and E are the RSA modulus and exponent, base64url-encoded.
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

// FindKey selects the verification key for a token.
//
// Selection rules: keys must be RSA with use absent or "sig". When the token
// header carries a kid, the key is selected by exact match; without a kid the
// set must contain exactly one matching key.
func FindKey(set *Set, kid string) (*rsa.PublicKey, error) {
	var matching []Key
	for _, key := range set.Keys {
		if key.KeyType != "RSA" {
			continue
		}
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		matching = append(matching, key)
	}

	if len(matching) == 0 {
		return nil, authzerr.NewKeyNotFoundError("FindKey", "no matching keys found in JWKS")
	}

	var selected *Key
	if kid != "" {
		for i := range matching {
			if matching[i].KeyID == kid {
				selected = &matching[i]
				break
			}
		}
		if selected == nil {
			return nil, authzerr.NewKeyNotFoundError("FindKey", fmt.Sprintf("key with kid %q not found", kid))
		}
	} else {
		if len(matching) > 1 {
			return nil, authzerr.NewKeyNotFoundError("FindKey", "multiple keys in JWKS but no key ID (kid) in token")
		}
		selected = &matching[0]
	}

	return rsaPublicKey(selected)
}

// rsaPublicKey builds an *rsa.PublicKey from a JWK's modulus and exponent.
func rsaPublicKey(key *Key) (*rsa.PublicKey, error) {
	if key.N == "" {
		return nil, authzerr.NewKeyNotFoundError("rsaPublicKey", "missing RSA modulus")
	}
	if key.E == "" {
		return nil, authzerr.NewKeyNotFoundError("rsaPublicKey", "missing RSA exponent")
	}

	nBytes, err := base64URLDecode(key.N)
	if err != nil {
		return nil, authzerr.NewKeyNotFoundError("rsaPublicKey", fmt.Sprintf("invalid RSA modulus: %v", err))
	}

	eBytes, err := base64URLDecode(key.E)
	if err != nil {
		return nil, authzerr.NewKeyNotFoundError("rsaPublicKey", fmt.Sprintf("invalid RSA exponent: %v", err))
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// base64URLDecode decodes a base64url-encoded string.
// It handles both padded and unpadded inputs.
func base64URLDecode(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}

	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")

	return base64.StdEncoding.DecodeString(s)
}
