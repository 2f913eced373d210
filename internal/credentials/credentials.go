// Package credentials resolves the certificate chain and keys used for signing
// manifests and issuing certificates.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wolfeidau/c2pa-signer/internal/pki"
)

const (
	// DefaultSigningSecretName is the secret holding the claim signing chain and key
	DefaultSigningSecretName = "c2pa-signing-credentials"

	// DefaultCASecretName is the secret holding the root and intermediate CA material
	DefaultCASecretName = "c2pa-ca-credentials"
)

// Source selects where credentials are resolved from.
type Source string

const (
	SourceFile           Source = "file"
	SourceSecretsManager Source = "secretsmanager"
	SourceSSM            Source = "ssm"
)

var (
	ErrSecretEmpty             = errors.New("Secret value is empty")
	ErrChainNotFound           = errors.New("Certificate chain not found in secret")
	ErrCACredentialsIncomplete = errors.New("CA credentials incomplete in secret")
	ErrFilesUnavailable        = errors.New("Failed to load signing certificates from files")
)

// SigningCredentials holds the PEM certificate chain presented to C2PA validators
// and, for local signing, the matching private key.
type SigningCredentials struct {
	CertificateChain string `json:"certificateChain"`
	PrivateKey       string `json:"privateKey,omitempty"`
}

// HasPrivateKey reports whether the credentials can be used for local signing.
func (c *SigningCredentials) HasPrivateKey() bool {
	return c.PrivateKey != ""
}

// CACredentials holds the certificate authority material. All four fields are
// required, a partially populated value is never returned by a Provider.
type CACredentials struct {
	RootCA                   string `json:"rootCA"`
	RootCAPrivateKey         string `json:"rootCAPrivateKey"`
	IntermediateCA           string `json:"intermediateCA"`
	IntermediateCAPrivateKey string `json:"intermediateCAPrivateKey"`
}

// Complete reports whether every field is populated.
func (c *CACredentials) Complete() bool {
	return c.RootCA != "" && c.RootCAPrivateKey != "" && c.IntermediateCA != "" && c.IntermediateCAPrivateKey != ""
}

// Provider resolves credentials. Every call resolves afresh, nothing is cached.
type Provider interface {
	SigningCredentials(ctx context.Context) (*SigningCredentials, error)
	CACredentials(ctx context.Context) (*CACredentials, error)
}

// decodeSigningSecret parses the JSON document stored in a secret or parameter
func decodeSigningSecret(value string) (*SigningCredentials, error) {
	if value == "" {
		return nil, ErrSecretEmpty
	}

	var creds SigningCredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	if creds.CertificateChain == "" {
		return nil, ErrChainNotFound
	}

	return &creds, nil
}

// decodeCASecret parses the JSON document stored in a secret or parameter
func decodeCASecret(value string) (*CACredentials, error) {
	if value == "" {
		return nil, ErrSecretEmpty
	}

	var creds CACredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	if !creds.Complete() {
		return nil, ErrCACredentialsIncomplete
	}

	return &creds, nil
}

func wrapSigning(err error) error {
	return fmt.Errorf("Failed to get signing credentials: %w", err)
}

func wrapCA(err error) error {
	return fmt.Errorf("Failed to get CA credentials: %w", err)
}

// Validate checks the chain holds at least one certificate and, when a private key
// is present, that the leaf certificate belongs to it.
func (c *SigningCredentials) Validate() error {
	certs, err := pki.ExtractCertificates(c.CertificateChain)
	if err != nil {
		return err
	}

	leaf, err := pki.ParseCertificatePEM([]byte(certs[0]))
	if err != nil {
		return fmt.Errorf("leaf certificate: %w", err)
	}

	if !c.HasPrivateKey() {
		return nil
	}

	keyPEM, err := pki.ExtractPrivateKey(c.PrivateKey)
	if err != nil {
		return err
	}

	key, err := pki.ParseECPrivateKey([]byte(keyPEM))
	if err != nil {
		return err
	}

	if err := pki.VerifyCertKeyPair(leaf, key); err != nil {
		return fmt.Errorf("leaf certificate does not match private key: %w", err)
	}

	return nil
}
