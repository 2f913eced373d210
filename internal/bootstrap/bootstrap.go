package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
)

// Bootstrap creates the development infrastructure: a test CA and signing chain in
// Secrets Manager, the ledger table and optionally a KMS signing key.
// If CleanResources is true, deletes existing resources first to ensure clean state
// If CleanResources is false, creates resources only if they don't exist (preserves data)
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.DynamoClient == nil {
		return nil, fmt.Errorf("DynamoClient is required")
	}
	if cfg.SecretsClient == nil {
		return nil, fmt.Errorf("SecretsClient is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}

	resources := ResourceNames(cfg.Environment)

	ca, err := credentials.GenerateTestCA()
	if err != nil {
		return nil, fmt.Errorf("failed to generate test CA: %w", err)
	}

	signing, err := credentials.GenerateTestSigningCredentials(ca, developmentSignerName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing credentials: %w", err)
	}

	// a preserved CA keeps its existing signing chain while that chain still validates
	written, err := PutSecretJSON(ctx, cfg.SecretsClient, resources.CASecretName, ca, cfg.CleanResources)
	if err != nil {
		return nil, err
	}

	overwriteSigning := written
	if !written {
		provider := credentials.NewSecretsManagerProvider(cfg.SecretsClient, resources.SigningSecretName, resources.CASecretName)
		reissued, err := reissueInvalidSigning(ctx, provider)
		if err != nil {
			return nil, err
		}
		if reissued != nil {
			signing = reissued
			overwriteSigning = true
		}
	}

	if _, err := PutSecretJSON(ctx, cfg.SecretsClient, resources.SigningSecretName, signing, overwriteSigning); err != nil {
		return nil, err
	}

	log.Info().
		Bool("regenerated", written).
		Str("signing_secret", resources.SigningSecretName).
		Str("ca_secret", resources.CASecretName).
		Msg("credential secrets ready")

	if err := CreateLedgerTable(ctx, cfg.DynamoClient, resources.LedgerTable, cfg.CleanResources); err != nil {
		return nil, fmt.Errorf("failed to create ledger table: %w", err)
	}

	if cfg.KMSClient != nil {
		keyID, err := CreateSigningKey(ctx, cfg.KMSClient, kmsAliasName(cfg.Environment))
		if err != nil {
			return nil, fmt.Errorf("failed to create KMS signing key: %w", err)
		}
		resources.KMSKeyID = keyID
	}

	return resources, nil
}

// reissueInvalidSigning returns nil when the stored signing chain validates, otherwise
// new signing credentials issued by the stored CA.
func reissueInvalidSigning(ctx context.Context, provider credentials.Provider) (*credentials.SigningCredentials, error) {
	existing, err := provider.SigningCredentials(ctx)
	if err == nil {
		if err = existing.Validate(); err == nil {
			return nil, nil
		}
	}

	log.Warn().Err(err).Msg("stored signing credentials unusable, reissuing from the stored CA")

	ca, err := provider.CACredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preserved CA credentials: %w", err)
	}

	signing, err := credentials.GenerateTestSigningCredentials(ca, developmentSignerName)
	if err != nil {
		return nil, fmt.Errorf("failed to reissue signing credentials: %w", err)
	}

	return signing, nil
}

// Cleanup deletes all resources created by Bootstrap. KMS keys cannot be deleted
// immediately and are left in place.
func Cleanup(ctx context.Context, cfg Config, res *Resources) error {
	for _, name := range []string{res.SigningSecretName, res.CASecretName} {
		if err := deleteSecretIfExists(ctx, cfg.SecretsClient, name); err != nil {
			return fmt.Errorf("failed to delete secret %s: %w", name, err)
		}
	}

	if err := DeleteLedgerTable(ctx, cfg.DynamoClient, res.LedgerTable); err != nil {
		return fmt.Errorf("failed to delete ledger table: %w", err)
	}

	return nil
}
