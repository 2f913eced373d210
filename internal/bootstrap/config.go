package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const developmentSignerName = "C2PA Development Signer"

// Config holds configuration for bootstrapping LocalStack infrastructure
type Config struct {
	// AWS SDK clients
	DynamoClient  *dynamodb.Client
	SecretsClient *secretsmanager.Client
	KMSClient     *kms.Client // optional, no signing key is created when nil

	// Resource naming
	Environment string // e.g., "dev", "test" - used as prefix for resource names

	// CleanResources controls whether to delete existing resources before creating
	// Set to false to preserve credentials and ledger entries across restarts
	CleanResources bool
}

// Resources holds identifiers for created infrastructure resources
type Resources struct {
	LedgerTable       string `json:"ledger_table" yaml:"ledger_table"`
	SigningSecretName string `json:"signing_secret_name" yaml:"signing_secret_name"`
	CASecretName      string `json:"ca_secret_name" yaml:"ca_secret_name"`
	KMSKeyID          string `json:"kms_key_id,omitempty" yaml:"kms_key_id,omitempty"` // empty when no KMS client was configured
}

// ResourceNames returns the resource names Bootstrap uses for an environment
func ResourceNames(env string) *Resources {
	if env == "" {
		env = "dev"
	}
	return &Resources{
		LedgerTable:       ledgerTableName(env),
		SigningSecretName: signingSecretName(env),
		CASecretName:      caSecretName(env),
	}
}

func ledgerTableName(env string) string {
	return env + "_c2pa_issued_certificates"
}

func signingSecretName(env string) string {
	return env + "/c2pa-signing-credentials"
}

func caSecretName(env string) string {
	return env + "/c2pa-ca-credentials"
}

func kmsAliasName(env string) string {
	return "alias/" + env + "-c2pa-signing"
}
