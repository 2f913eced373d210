package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sort"
	"time"
)

// CertRecord is the ledger entry written for every certificate the authority issues
type CertRecord struct {
	SerialNumber   string    `dynamodbav:"serial_number" json:"serial_number" yaml:"serial_number"`
	CertificateID  string    `dynamodbav:"certificate_id" json:"certificate_id" yaml:"certificate_id"`
	Subject        string    `dynamodbav:"subject" json:"subject" yaml:"subject"`
	CSRFingerprint string    `dynamodbav:"csr_fingerprint" json:"csr_fingerprint" yaml:"csr_fingerprint"`
	IssuerMode     string    `dynamodbav:"issuer_mode" json:"issuer_mode" yaml:"issuer_mode"`
	IssuedAt       time.Time `dynamodbav:"issued_at" json:"issued_at" yaml:"issued_at"`
	ExpiresAt      time.Time `dynamodbav:"expires_at" json:"expires_at" yaml:"expires_at"`
	TTL            int64     `dynamodbav:"ttl" json:"-" yaml:"-"` // Unix seconds for DynamoDB TTL
}

// CertificateStore records issued certificates
type CertificateStore interface {
	// Register stores a record, serial numbers are unique
	Register(ctx context.Context, cert *CertRecord) error

	// Get retrieves a record by serial number
	Get(ctx context.Context, serialNumber string) (*CertRecord, error)

	// List returns records, newest first
	List(ctx context.Context, opts ListCertificatesOptions) ([]*CertRecord, error)
}

// ListCertificatesOptions specifies filters for listing certificates
type ListCertificatesOptions struct {
	IssuerMode string // Filter by issuer mode (empty = all)
	Limit      int    // Max results (0 = no limit)
}

// Errors
var (
	ErrCertNotFound      = errors.New("certificate not found")
	ErrCertAlreadyExists = errors.New("certificate already exists")
	ErrThrottled         = errors.New("AWS request throttled")
)

// retention after expiry before DynamoDB expires the record
const recordRetention = 30 * 24 * time.Hour

// NewCertRecord builds a ledger record for an issued certificate. The CSR is
// identified by the base64 SHA-256 of its PEM text as submitted.
func NewCertRecord(serialNumber, certificateID, subject, csrPEM, issuerMode string, issuedAt, expiresAt time.Time) *CertRecord {
	fingerprint := sha256.Sum256([]byte(csrPEM))

	return &CertRecord{
		SerialNumber:   serialNumber,
		CertificateID:  certificateID,
		Subject:        subject,
		CSRFingerprint: base64.StdEncoding.EncodeToString(fingerprint[:]),
		IssuerMode:     issuerMode,
		IssuedAt:       issuedAt.UTC(),
		ExpiresAt:      expiresAt.UTC(),
		TTL:            expiresAt.Add(recordRetention).Unix(),
	}
}

// sortAndLimit orders records newest first, ties broken by serial number
func sortAndLimit(certs []*CertRecord, limit int) []*CertRecord {
	sort.Slice(certs, func(i, j int) bool {
		if certs[i].IssuedAt.Equal(certs[j].IssuedAt) {
			return certs[i].SerialNumber < certs[j].SerialNumber
		}
		return certs[i].IssuedAt.After(certs[j].IssuedAt)
	})

	if limit > 0 && len(certs) > limit {
		certs = certs[:limit]
	}

	return certs
}
