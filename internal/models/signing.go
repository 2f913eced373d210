package models

import (
	"encoding/json"
	"time"
)

// SigningRequest carries a base64 encoded manifest claim to sign.
type SigningRequest struct {
	Claim string `json:"claim"`
}

// SigningResponse carries the base64 encoded ASN.1 DER ECDSA signature.
type SigningResponse struct {
	Signature string `json:"signature"`
}

// CertificateSigningRequest carries a PEM encoded PKCS#10 request.
type CertificateSigningRequest struct {
	CSR string `json:"csr"`
}

// SignedCertificateResponse is returned by the certificate authority.
type SignedCertificateResponse struct {
	CertificateID    string    `json:"certificate_id"`
	CertificateChain string    `json:"certificate_chain"`
	ExpiresAt        time.Time `json:"expires_at"`
	SerialNumber     string    `json:"serial_number"`
}

// MarshalJSON renders expires_at with millisecond precision in UTC, the format
// C2PA tooling already parses.
func (r SignedCertificateResponse) MarshalJSON() ([]byte, error) {
	type alias SignedCertificateResponse
	return json.Marshal(struct {
		alias
		ExpiresAt string `json:"expires_at"`
	}{
		alias:     alias(r),
		ExpiresAt: FormatTimestamp(r.ExpiresAt),
	})
}

// Configuration is the c2patool remote signing configuration document.
type Configuration struct {
	Algorithm        string `json:"algorithm"`
	TimestampURL     string `json:"timestamp_url"`
	SigningURL       string `json:"signing_url"`
	CertificateChain string `json:"certificate_chain"`

	// Legacy fields
	SupportedAlgorithms []string `json:"supportedAlgorithms,omitempty"`
	MaxManifestSize     int      `json:"maxManifestSize,omitempty"`
	Version             string   `json:"version,omitempty"`
}

// Health is the payload served from the root path.
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Mode        string `json:"mode"`
	C2PAVersion string `json:"c2pa_version"`
}

// ErrorResponse is the body of every non 2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC as an ISO 8601 string with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
