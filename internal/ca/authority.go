// Package ca issues claim signing certificates from certificate signing requests.
package ca

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/models"
	"github.com/wolfeidau/c2pa-signer/internal/store"
	"github.com/wolfeidau/c2pa-signer/internal/telemetry"
)

// Mode selects how the leaf certificate is produced.
type Mode string

const (
	// ModeStub returns placeholder certificate text, it is not valid X.509
	ModeStub Mode = "stub"

	// ModeX509 issues a real leaf signed by the intermediate CA key
	ModeX509 Mode = "x509"
)

const (
	csrMarker        = "BEGIN CERTIFICATE REQUEST"
	serialNumberSize = 8
)

// ErrInvalidCSR is returned for requests that do not carry a PEM certificate request
var ErrInvalidCSR = errors.New("Invalid CSR format")

// ParseMode validates a mode name, empty selects ModeStub.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStub:
		return ModeStub, nil
	case ModeX509:
		return ModeX509, nil
	default:
		return "", fmt.Errorf("unknown CA mode %q", s)
	}
}

// Config holds the authority settings. Zero values select the defaults.
type Config struct {
	Mode Mode

	// Ledger records every issued certificate when set
	Ledger store.CertificateStore

	Now   func() time.Time
	Rand  io.Reader
	NewID func() string
}

// Authority issues certificates using CA credentials from a credentials.Provider.
type Authority struct {
	provider credentials.Provider
	mode     Mode
	ledger   store.CertificateStore
	now      func() time.Time
	rand     io.Reader
	newID    func() string
}

// New creates an Authority.
func New(provider credentials.Provider, cfg Config) *Authority {
	a := &Authority{
		provider: provider,
		mode:     cfg.Mode,
		ledger:   cfg.Ledger,
		now:      cfg.Now,
		rand:     cfg.Rand,
		newID:    cfg.NewID,
	}

	if a.mode == "" {
		a.mode = ModeStub
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.rand == nil {
		a.rand = rand.Reader
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}

	return a
}

// Mode returns the issuing mode.
func (a *Authority) Mode() Mode {
	return a.mode
}

// issuance is the material shared by both issuing modes
type issuance struct {
	serialNumber string
	serialBytes  []byte
	issuedAt     time.Time
	expiresAt    time.Time
}

// Issue validates the CSR and returns a certificate chain of leaf, intermediate CA
// and root CA valid for one year. CSR validation failures are returned as
// models.ValidationError, anything else as "Failed to sign CSR: <cause>".
func (a *Authority) Issue(ctx context.Context, csrPEM string) (*models.SignedCertificateResponse, error) {
	logger := zerolog.Ctx(ctx).With().Str("ca_mode", string(a.mode)).Logger()
	attrs := metric.WithAttributes(attribute.String("mode", string(a.mode)))
	metrics := telemetry.GetMetrics()

	if !strings.Contains(csrPEM, csrMarker) {
		metrics.CertificateErrorsTotal.Add(ctx, 1, attrs)
		return nil, models.NewValidationError(ErrInvalidCSR.Error())
	}

	issuer, err := a.issuer(csrPEM)
	if err != nil {
		metrics.CertificateErrorsTotal.Add(ctx, 1, attrs)
		logger.Warn().Err(err).Msg("rejected certificate request")
		return nil, models.NewValidationError(ErrInvalidCSR.Error())
	}

	resp, iss, err := a.issue(ctx, issuer)
	if err != nil {
		metrics.CertificateErrorsTotal.Add(ctx, 1, attrs)
		logger.Error().Err(err).Msg("CSR signing failed")
		return nil, fmt.Errorf("Failed to sign CSR: %w", err)
	}

	metrics.CertificatesIssuedTotal.Add(ctx, 1, attrs)
	logger.Info().
		Str("serial_number", resp.SerialNumber).
		Str("certificate_id", resp.CertificateID).
		Time("expires_at", resp.ExpiresAt).
		Msg("certificate issued")

	a.record(ctx, logger, store.NewCertRecord(
		resp.SerialNumber,
		resp.CertificateID,
		issuer.subject(),
		csrPEM,
		string(a.mode),
		iss.issuedAt,
		iss.expiresAt,
	))

	return resp, nil
}

func (a *Authority) issue(ctx context.Context, issuer leafIssuer) (*models.SignedCertificateResponse, issuance, error) {
	ca, err := a.provider.CACredentials(ctx)
	if err != nil {
		telemetry.GetMetrics().CredentialLoadErrorsTotal.Add(ctx, 1)
		return nil, issuance{}, err
	}

	iss, err := a.newIssuance()
	if err != nil {
		return nil, issuance{}, err
	}

	leaf, err := issuer.issue(ca, iss, a.rand)
	if err != nil {
		return nil, issuance{}, err
	}

	chain := strings.Join([]string{leaf, ca.IntermediateCA, ca.RootCA}, "\n")

	return &models.SignedCertificateResponse{
		CertificateID:    a.newID(),
		CertificateChain: chain,
		ExpiresAt:        iss.expiresAt,
		SerialNumber:     iss.serialNumber,
	}, iss, nil
}

func (a *Authority) newIssuance() (issuance, error) {
	serial := make([]byte, serialNumberSize)
	if _, err := io.ReadFull(a.rand, serial); err != nil {
		return issuance{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := a.now().UTC()

	return issuance{
		serialNumber: strings.ToUpper(hex.EncodeToString(serial)),
		serialBytes:  serial,
		issuedAt:     now,
		expiresAt:    now.AddDate(1, 0, 0),
	}, nil
}

// record writes the ledger entry. Failures are logged and never surface to the caller.
func (a *Authority) record(ctx context.Context, logger zerolog.Logger, rec *store.CertRecord) {
	if a.ledger == nil {
		return
	}

	if err := a.ledger.Register(ctx, rec); err != nil {
		if errors.Is(err, store.ErrCertAlreadyExists) {
			logger.Warn().Str("serial_number", rec.SerialNumber).Msg("duplicate serial number in certificate ledger")
			return
		}
		logger.Error().Err(err).Str("serial_number", rec.SerialNumber).Msg("failed to record issued certificate")
	}
}
