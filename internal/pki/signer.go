package pki

import (
	"context"
)

// Signer produces an ES256 signature over a manifest claim.
// Implementations include LocalSigner (PEM key loaded from credentials) and KMSSigner (AWS KMS).
type Signer interface {
	// Sign returns the ASN.1 DER encoded ECDSA P-256 signature over SHA-256(data).
	// The data is the raw claim, implementations perform the hashing.
	Sign(ctx context.Context, data []byte) ([]byte, error)
}
