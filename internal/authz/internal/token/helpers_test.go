package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
)

// publicKeyPEM renders an RSA public key in PKIX PEM form.
func publicKeyPEM(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", err
	}

	block := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}
	return string(pem.EncodeToMemory(block)), nil
}
