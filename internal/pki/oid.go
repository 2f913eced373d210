package pki

import (
	"crypto/x509"
	"encoding/asn1"
)

// Extended key usages accepted by C2PA validators for claim signing certificates.
var (
	// OIDDocumentSigning is id-kp-documentSigning (RFC 9336)
	OIDDocumentSigning = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 36}

	// OIDC2PAClaimSigning is c2pa-kp-claimSigning
	OIDC2PAClaimSigning = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 62558, 2, 1}
)

// ApplyClaimSigningUsage sets the key usage and extended key usages a claim signing
// leaf certificate needs.
func ApplyClaimSigningUsage(template *x509.Certificate) {
	template.KeyUsage = x509.KeyUsageDigitalSignature
	template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection}
	template.UnknownExtKeyUsage = []asn1.ObjectIdentifier{OIDDocumentSigning, OIDC2PAClaimSigning}
	template.BasicConstraintsValid = true
	template.IsCA = false
}

// HasClaimSigningUsage reports whether the certificate carries at least one
// extended key usage suitable for C2PA claim signing.
func HasClaimSigningUsage(cert *x509.Certificate) bool {
	for _, eku := range cert.ExtKeyUsage {
		if eku == x509.ExtKeyUsageEmailProtection {
			return true
		}
	}

	for _, oid := range cert.UnknownExtKeyUsage {
		if oid.Equal(OIDDocumentSigning) || oid.Equal(OIDC2PAClaimSigning) {
			return true
		}
	}

	return false
}
