package pki

import (
	"context"
	"crypto/ecdsa"
	"fmt"
)

// LocalSigner implements Signer with an ECDSA private key held in process memory.
// The key comes from the signing credentials and is intended for development and
// small deployments; production should prefer KMSSigner.
type LocalSigner struct {
	key *ecdsa.PrivateKey
}

// NewLocalSigner creates a LocalSigner from PEM text. The PEM may be a bundle, the
// first private key block is used.
func NewLocalSigner(privateKeyPEM string) (*LocalSigner, error) {
	keyBlock, err := ExtractPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	key, err := ParseECPrivateKey([]byte(keyBlock))
	if err != nil {
		return nil, err
	}

	return &LocalSigner{key: key}, nil
}

// Sign signs SHA-256(data) with the local key.
func (s *LocalSigner) Sign(_ context.Context, data []byte) ([]byte, error) {
	sig, err := SignES256(s.key, data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// Public returns the signer's public key.
func (s *LocalSigner) Public() *ecdsa.PublicKey {
	return &s.key.PublicKey
}
