package credentials

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/wolfeidau/c2pa-signer/internal/pki"
)

const (
	testRootCommonName         = "C2PA Test Root CA"
	testIntermediateCommonName = "C2PA Test Intermediate CA"
	testOrganization           = "C2PA Signing Server Test"
)

// GenerateTestCA creates a P-256 root and an intermediate signed by it.
// The result is real X.509 material but is only suitable for tests and local use.
func GenerateTestCA() (*CACredentials, error) {
	now := time.Now().UTC()

	rootKey, err := pki.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate root key: %w", err)
	}

	rootTemplate := caTemplate(testRootCommonName, now, now.AddDate(10, 0, 0), 1)
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create root certificate: %w", err)
	}

	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root certificate: %w", err)
	}

	intermediateKey, err := pki.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate intermediate key: %w", err)
	}

	intermediateTemplate := caTemplate(testIntermediateCommonName, now, now.AddDate(5, 0, 0), 0)
	intermediateDER, err := x509.CreateCertificate(rand.Reader, intermediateTemplate, rootCert, &intermediateKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create intermediate certificate: %w", err)
	}

	rootKeyPEM, err := pki.EncodePrivateKeyPEM(rootKey)
	if err != nil {
		return nil, err
	}

	intermediateKeyPEM, err := pki.EncodePrivateKeyPEM(intermediateKey)
	if err != nil {
		return nil, err
	}

	return &CACredentials{
		RootCA:                   string(pki.EncodeCertificatePEM(rootDER)),
		RootCAPrivateKey:         string(rootKeyPEM),
		IntermediateCA:           string(pki.EncodeCertificatePEM(intermediateDER)),
		IntermediateCAPrivateKey: string(intermediateKeyPEM),
	}, nil
}

// GenerateTestSigningCredentials issues a claim signing leaf for commonName from the
// intermediate in ca and returns it with its key. The chain is leaf, intermediate, root.
func GenerateTestSigningCredentials(ca *CACredentials, commonName string) (*SigningCredentials, error) {
	if !ca.Complete() {
		return nil, ErrCACredentialsIncomplete
	}

	intermediateCert, err := pki.ParseCertificatePEM([]byte(ca.IntermediateCA))
	if err != nil {
		return nil, fmt.Errorf("intermediate CA: %w", err)
	}

	intermediateKey, err := pki.ParseECPrivateKey([]byte(ca.IntermediateCAPrivateKey))
	if err != nil {
		return nil, fmt.Errorf("intermediate CA key: %w", err)
	}

	leafKey, err := pki.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{testOrganization},
		},
		NotBefore: now.Add(-5 * time.Minute),
		NotAfter:  now.AddDate(1, 0, 0),
	}
	pki.ApplyClaimSigningUsage(template)

	leafDER, err := x509.CreateCertificate(rand.Reader, template, intermediateCert, &leafKey.PublicKey, intermediateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signing certificate: %w", err)
	}

	keyPEM, err := pki.EncodePrivateKeyPEM(leafKey)
	if err != nil {
		return nil, err
	}

	chain := strings.Join([]string{
		strings.TrimSpace(string(pki.EncodeCertificatePEM(leafDER))),
		strings.TrimSpace(ca.IntermediateCA),
		strings.TrimSpace(ca.RootCA),
	}, "\n") + "\n"

	return &SigningCredentials{
		CertificateChain: chain,
		PrivateKey:       string(keyPEM),
	}, nil
}

func caTemplate(commonName string, notBefore, notAfter time.Time, maxPathLen int) *x509.Certificate {
	serial, _ := randomSerial()

	return &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{testOrganization},
		},
		NotBefore:             notBefore.Add(-5 * time.Minute),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            maxPathLen,
		MaxPathLenZero:        maxPathLen == 0,
	}
}

func randomSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	// zero is not a valid serial
	return serial.Add(serial, big.NewInt(1)), nil
}
