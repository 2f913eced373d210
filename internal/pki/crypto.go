package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	pemTypeECPrivateKey = "EC PRIVATE KEY"
	pemTypePrivateKey   = "PRIVATE KEY"
	pemTypeCertificate  = "CERTIFICATE"
	pemTypeCSR          = "CERTIFICATE REQUEST"
)

// ErrInvalidPrivateKey is returned when a PEM block does not hold a P-256 ECDSA key
var ErrInvalidPrivateKey = errors.New("invalid private key format")

// ParseECPrivateKey parses a PEM encoded ECDSA private key in either SEC 1
// ("EC PRIVATE KEY") or PKCS#8 ("PRIVATE KEY") form.
func ParseECPrivateKey(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode private key PEM: %w", ErrInvalidPrivateKey)
	}

	switch block.Type {
	case pemTypeECPrivateKey:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC private key: %w", err)
		}
		return key, nil
	case pemTypePrivateKey:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not ECDSA (got %T): %w", parsed, ErrInvalidPrivateKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unexpected PEM block type %q: %w", block.Type, ErrInvalidPrivateKey)
	}
}

// SignES256 hashes data with SHA-256 and signs the digest, returning an ASN.1 DER signature.
func SignES256(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("private key curve is %s, expected P-256", key.Curve.Params().Name)
	}

	digest := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, key, digest[:])
}

// VerifyES256 checks an ASN.1 DER signature over SHA-256(data).
func VerifyES256(pub *ecdsa.PublicKey, data, signature []byte) bool {
	digest := sha256.Sum256(data)
	return ecdsa.VerifyASN1(pub, digest[:], signature)
}

// GenerateKey creates a new P-256 key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// EncodePrivateKeyPEM encodes the key as a PKCS#8 PEM block.
func EncodePrivateKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// EncodeCertificatePEM encodes DER certificate bytes as a PEM block.
func EncodeCertificatePEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: der})
}

// EncodeCSRPEM encodes DER certificate request bytes as a PEM block.
func EncodeCSRPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCSR, Bytes: der})
}

// ParseCertificatePEM parses the first certificate in a PEM document.
func ParseCertificatePEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("failed to decode certificate PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// ParseCSRPEM parses a PEM certificate request and verifies its self-signature.
func ParseCSRPEM(csrPEM []byte) (*x509.CertificateRequest, error) {
	block, _ := pem.Decode(csrPEM)
	if block == nil || block.Type != pemTypeCSR {
		return nil, fmt.Errorf("failed to decode certificate request PEM")
	}

	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate request: %w", err)
	}

	if err := csr.CheckSignature(); err != nil {
		return nil, fmt.Errorf("certificate request signature is invalid: %w", err)
	}

	return csr, nil
}

// VerifyCertKeyPair checks that a certificate's public key matches a private key
func VerifyCertKeyPair(cert *x509.Certificate, key crypto.PrivateKey) error {
	ecdsaKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return fmt.Errorf("private key is not ECDSA")
	}

	certPubKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate public key is not ECDSA")
	}

	if !ecdsaKey.PublicKey.Equal(certPubKey) {
		return fmt.Errorf("public keys do not match")
	}

	return nil
}
