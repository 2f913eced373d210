package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/c2pa-signer/internal/auth"
	"github.com/wolfeidau/c2pa-signer/internal/ca"
	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/pki"
	"github.com/wolfeidau/c2pa-signer/internal/server"
	"github.com/wolfeidau/c2pa-signer/internal/signing"
)

// AppFlags configure the signing API and are shared by the serve and lambda commands.
type AppFlags struct {
	Environment      string `help:"environment reported as the health mode" default:"production" env:"ENVIRONMENT"`
	SigningServerURL string `name:"signing-server-url" help:"public base URL advertised as signing_url, the request host is used when empty" default:"" env:"SIGNING_SERVER_URL"`
	RoutePrefix      string `help:"path prefix stripped from request paths" default:"/dev" env:"C2PA_ROUTE_PREFIX"`
	Token            string `help:"bearer token required on /api/v1/c2pa routes, empty leaves them open" default:"" env:"SIGNING_SERVER_TOKEN"`
	MaxBodyBytes     int64  `help:"maximum request body size in bytes" default:"1048576" env:"C2PA_MAX_BODY_BYTES"`

	// Signing configuration
	UseKMS   bool   `name:"use-kms" help:"sign claims with AWS KMS instead of the local private key" default:"false" env:"USE_KMS"`
	KMSKeyID string `name:"kms-key-id" help:"KMS key id, ARN or alias" default:"" env:"KMS_KEY_ID"`

	// Credential configuration
	UseAWSSecrets            bool   `name:"use-aws-secrets" help:"load credentials from Secrets Manager" default:"false" env:"USE_AWS_SECRETS"`
	CredentialsSource        string `help:"credential source (file, secretsmanager or ssm), derived from --use-aws-secrets when empty" default:"" env:"C2PA_CREDENTIALS_SOURCE"`
	SigningCredentialsSecret string `help:"secret or parameter holding the signing credentials" default:"c2pa-signing-credentials" env:"SIGNING_CREDENTIALS_SECRET"`
	CACredentialsSecret      string `name:"ca-credentials-secret" help:"secret or parameter holding the CA credentials" default:"c2pa-ca-credentials" env:"CA_CREDENTIALS_SECRET"`
	CredentialsDir           string `help:"directory holding es256_certs.pem and es256_private.key" default:"." env:"C2PA_CREDENTIALS_DIR"`

	// Certificate authority configuration
	CAMode string `name:"ca-mode" help:"certificate authority mode (stub or x509)" default:"stub" env:"C2PA_CA_MODE" enum:"stub,x509"`

	AWS    AWSFlags    `embed:"" prefix:"aws-"`
	Ledger LedgerFlags `embed:""`
}

// credentialsSource resolves the configured source, --credentials-source wins over --use-aws-secrets
func (f *AppFlags) credentialsSource() (credentials.Source, error) {
	switch src := credentials.Source(f.CredentialsSource); src {
	case "":
		if f.UseAWSSecrets {
			return credentials.SourceSecretsManager, nil
		}
		return credentials.SourceFile, nil
	case credentials.SourceFile, credentials.SourceSecretsManager, credentials.SourceSSM:
		return src, nil
	default:
		return "", fmt.Errorf("unknown credentials source %q", f.CredentialsSource)
	}
}

func (f *AppFlags) provider(awsCfg aws.Config) (credentials.Provider, credentials.Source, error) {
	src, err := f.credentialsSource()
	if err != nil {
		return nil, "", err
	}

	switch src {
	case credentials.SourceSecretsManager:
		return credentials.NewSecretsManagerProvider(f.AWS.secretsManager(awsCfg), f.SigningCredentialsSecret, f.CACredentialsSecret), src, nil
	case credentials.SourceSSM:
		return credentials.NewSSMProvider(f.AWS.ssm(awsCfg), f.SigningCredentialsSecret, f.CACredentialsSecret), src, nil
	default:
		return credentials.NewFileProvider(f.CredentialsDir), src, nil
	}
}

// app holds the wired router and anything that must be released on shutdown
type app struct {
	router *server.Router
	close  func()
}

// build wires the router. externalCORS hands the Access-Control headers to outer middleware.
func (f *AppFlags) build(ctx context.Context, awsCfg aws.Config, externalCORS bool) (*app, error) {
	log := zerolog.Ctx(ctx)

	provider, src, err := f.provider(awsCfg)
	if err != nil {
		return nil, err
	}

	var kmsSigner pki.Signer
	if f.UseKMS {
		if f.KMSKeyID == "" {
			log.Warn().Msg("KMS signing enabled without a key id, sign requests will fail")
		} else {
			kmsSigner = pki.NewKMSSigner(f.AWS.kms(awsCfg), f.KMSKeyID)
		}
	}

	mode, err := ca.ParseMode(f.CAMode)
	if err != nil {
		return nil, err
	}

	ledger, closeLedger, err := f.Ledger.open(ctx, &f.AWS, awsCfg)
	if err != nil {
		return nil, err
	}

	gate := auth.NewGate(f.Token)
	if gate.Open() {
		log.Warn().Msg("No bearer token configured, /api/v1/c2pa routes are unauthenticated")
	}

	signer := signing.NewService(signing.Config{UseKMS: f.UseKMS}, provider, kmsSigner)
	authority := ca.New(provider, ca.Config{Mode: mode, Ledger: ledger})

	router := server.NewRouter(server.Config{
		Environment:      f.Environment,
		SigningServerURL: f.SigningServerURL,
		RoutePrefix:      f.RoutePrefix,
		MaxBodyBytes:     f.MaxBodyBytes,
		ExternalCORS:     externalCORS,
	}, gate, signer, authority)

	log.Info().
		Str("credentials_source", string(src)).
		Str("signing_mode", signer.Mode()).
		Str("ca_mode", string(authority.Mode())).
		Str("ledger", f.Ledger.Ledger).
		Str("environment", f.Environment).
		Msg("Signing API configured")

	return &app{router: router, close: closeLedger}, nil
}
