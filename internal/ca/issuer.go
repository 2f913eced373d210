package ca

import (
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/models"
	"github.com/wolfeidau/c2pa-signer/internal/pki"
)

// leafIssuer produces the PEM leaf certificate placed first in the chain
type leafIssuer interface {
	issue(ca *credentials.CACredentials, iss issuance, rand io.Reader) (string, error)
	subject() string
}

func (a *Authority) issuer(csrPEM string) (leafIssuer, error) {
	if a.mode == ModeX509 {
		csr, err := pki.ParseCSRPEM([]byte(csrPEM))
		if err != nil {
			return nil, err
		}
		return &x509Issuer{csr: csr}, nil
	}

	// the stub accepts any text carrying the marker, the subject is informational
	var subject string
	if csr, err := pki.ParseCSRPEM([]byte(csrPEM)); err == nil {
		subject = csr.Subject.String()
	}

	return &stubIssuer{subjectDN: subject}, nil
}

const stubLeafTemplate = `-----BEGIN CERTIFICATE-----
MIIBkTCB+wIJA%sMA0GCSqGSIb3DQEBCwUAMEUxCzAJBgNVBAYTAlVT
MRMwEQYDVQQIDApDYWxpZm9ybmlhMSEwHwYDVQQKDBhDMlBBIFNpZ25pbmcgU2Vy
dmVyIFRlc3QwHhcNMjQwMTAxMDAwMDAwWhcN%sWjBFMQswCQYD
VQQGEwJVUzETMBEGA1UECAwKQ2FsaWZvcm5pYTEhMB8GA1UECgwYQzJQQSBTaWdu
aW5nIFNlcnZlciBUZXN0MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAESignedCert
-----END CERTIFICATE-----`

// stubIssuer renders placeholder certificate text embedding the serial and expiry.
// Clients only check the chain shape, the leaf does not parse as X.509.
type stubIssuer struct {
	subjectDN string
}

func (s *stubIssuer) issue(_ *credentials.CACredentials, iss issuance, _ io.Reader) (string, error) {
	return fmt.Sprintf(stubLeafTemplate, iss.serialNumber, models.FormatTimestamp(iss.expiresAt)), nil
}

func (s *stubIssuer) subject() string {
	return s.subjectDN
}

// x509Issuer signs the requested public key with the intermediate CA key.
type x509Issuer struct {
	csr *x509.CertificateRequest
}

func (x *x509Issuer) issue(ca *credentials.CACredentials, iss issuance, rand io.Reader) (string, error) {
	intermediate, err := pki.ParseCertificatePEM([]byte(ca.IntermediateCA))
	if err != nil {
		return "", fmt.Errorf("intermediate CA: %w", err)
	}

	keyPEM, err := pki.ExtractPrivateKey(ca.IntermediateCAPrivateKey)
	if err != nil {
		return "", fmt.Errorf("intermediate CA key: %w", err)
	}

	key, err := pki.ParseECPrivateKey([]byte(keyPEM))
	if err != nil {
		return "", fmt.Errorf("intermediate CA key: %w", err)
	}

	if err := pki.VerifyCertKeyPair(intermediate, key); err != nil {
		return "", fmt.Errorf("intermediate CA key does not match certificate: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:   new(big.Int).SetBytes(iss.serialBytes),
		Subject:        x.csr.Subject,
		DNSNames:       x.csr.DNSNames,
		EmailAddresses: x.csr.EmailAddresses,
		NotBefore:      iss.issuedAt,
		NotAfter:       iss.expiresAt,
	}
	pki.ApplyClaimSigningUsage(template)

	der, err := x509.CreateCertificate(rand, template, intermediate, x.csr.PublicKey, key)
	if err != nil {
		return "", fmt.Errorf("failed to create certificate: %w", err)
	}

	return strings.TrimSpace(string(pki.EncodeCertificatePEM(der))), nil
}

func (x *x509Issuer) subject() string {
	return x.csr.Subject.String()
}
