// Package signing signs C2PA manifest claims with either AWS KMS or a local key.
package signing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/models"
	"github.com/wolfeidau/c2pa-signer/internal/pki"
	"github.com/wolfeidau/c2pa-signer/internal/telemetry"
)

// ErrPrivateKeyUnavailable is returned in local mode when the credentials carry no key.
var ErrPrivateKeyUnavailable = errors.New("Private key not available for local signing")

// Config selects the signing backend.
type Config struct {
	// UseKMS signs with KMSSigner, otherwise the private key from the credentials is used.
	UseKMS bool
}

// Service dispatches claim signing to KMS or to a local key.
type Service struct {
	cfg       Config
	provider  credentials.Provider
	kmsSigner pki.Signer
}

// NewService creates a Service. kmsSigner is only consulted when cfg.UseKMS is set
// and may be nil otherwise.
func NewService(cfg Config, provider credentials.Provider, kmsSigner pki.Signer) *Service {
	return &Service{
		cfg:       cfg,
		provider:  provider,
		kmsSigner: kmsSigner,
	}
}

// Mode names the active backend for logs and health output.
func (s *Service) Mode() string {
	if s.cfg.UseKMS {
		return "kms"
	}
	return "local"
}

// Sign decodes the claim, signs it and returns the base64 signature. Every backend
// failure is reported as "C2PA signing failed: <cause>".
func (s *Service) Sign(ctx context.Context, req models.SigningRequest) (*models.SigningResponse, error) {
	if req.Claim == "" {
		return nil, models.NewValidationError("Missing required field: claim")
	}

	started := time.Now()
	attrs := metric.WithAttributes(attribute.String("mode", s.Mode()))
	metrics := telemetry.GetMetrics()
	metrics.SignRequestsTotal.Add(ctx, 1, attrs)

	logger := zerolog.Ctx(ctx).With().Str("mode", s.Mode()).Logger()

	data := pki.DecodeBase64(req.Claim)
	logger.Info().Int("size", len(data)).Msg("received signing request")

	signature, err := s.sign(ctx, logger, data)
	if err != nil {
		metrics.SignErrorsTotal.Add(ctx, 1, attrs)
		logger.Error().Err(err).Msg("signing failed")
		return nil, fmt.Errorf("C2PA signing failed: %w", err)
	}

	metrics.SignDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	logger.Info().Int("signature_size", len(signature)).Msg("signature generated")

	return &models.SigningResponse{Signature: pki.EncodeBase64(signature)}, nil
}

func (s *Service) sign(ctx context.Context, logger zerolog.Logger, data []byte) ([]byte, error) {
	if s.cfg.UseKMS {
		logger.Info().Msg("using KMS for signing")
		if s.kmsSigner == nil {
			return nil, pki.ErrKMSKeyNotConfigured
		}
		return s.kmsSigner.Sign(ctx, data)
	}

	logger.Info().Msg("using local key for signing")

	creds, err := s.provider.SigningCredentials(ctx)
	if err != nil {
		telemetry.GetMetrics().CredentialLoadErrorsTotal.Add(ctx, 1)
		return nil, err
	}

	if !creds.HasPrivateKey() {
		return nil, ErrPrivateKeyUnavailable
	}

	signer, err := pki.NewLocalSigner(creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("Local signing failed: %w", err)
	}

	signature, err := signer.Sign(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("Local signing failed: %w", err)
	}

	return signature, nil
}

// CertificateChain returns the PEM chain from the signing credentials, base64 encoded.
func (s *Service) CertificateChain(ctx context.Context) (string, error) {
	creds, err := s.provider.SigningCredentials(ctx)
	if err != nil {
		telemetry.GetMetrics().CredentialLoadErrorsTotal.Add(ctx, 1)
		return "", err
	}

	return pki.EncodeBase64([]byte(creds.CertificateChain)), nil
}
