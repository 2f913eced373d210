//go:build integration

package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/store"
)

func setupLocalStack(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:4",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES": "dynamodb,secretsmanager,kms",
			},
			WaitingFor: wait.ForHTTP("/_localstack/health").WithPort("4566/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "4566")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestIntegration_Bootstrap(t *testing.T) {
	ctx := context.Background()
	endpoint := setupLocalStack(t, ctx)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider("test", "test", "test")),
	)
	require.NoError(t, err)

	cfg := Config{
		DynamoClient: dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}),
		SecretsClient: secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}),
		KMSClient: kms.NewFromConfig(awsCfg, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}),
		Environment:    "test",
		CleanResources: true,
	}

	res, err := Bootstrap(ctx, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.KMSKeyID)

	provider := credentials.NewSecretsManagerProvider(cfg.SecretsClient, res.SigningSecretName, res.CASecretName)

	signing, err := provider.SigningCredentials(ctx)
	require.NoError(t, err)
	require.NoError(t, signing.Validate())

	ca, err := provider.CACredentials(ctx)
	require.NoError(t, err)
	require.True(t, ca.Complete())

	t.Run("preserves resources", func(t *testing.T) {
		again, err := Bootstrap(ctx, Config{
			DynamoClient:  cfg.DynamoClient,
			SecretsClient: cfg.SecretsClient,
			KMSClient:     cfg.KMSClient,
			Environment:   "test",
		})
		require.NoError(t, err)
		require.Equal(t, res.KMSKeyID, again.KMSKeyID)

		preserved, err := provider.CACredentials(ctx)
		require.NoError(t, err)
		require.Equal(t, ca.RootCA, preserved.RootCA)
	})

	t.Run("ledger table", func(t *testing.T) {
		ledger := store.NewDynamoDBCertificateStore(cfg.DynamoClient, res.LedgerTable)

		issued := time.Now().UTC().Truncate(time.Second)
		cert := store.NewCertRecord("0102030405060708", "id", "CN=test", "csr", "x509", issued, issued.AddDate(1, 0, 0))
		require.NoError(t, ledger.Register(ctx, cert))
		require.ErrorIs(t, ledger.Register(ctx, cert), store.ErrCertAlreadyExists)

		got, err := ledger.Get(ctx, "0102030405060708")
		require.NoError(t, err)
		require.Equal(t, "x509", got.IssuerMode)

		certs, err := ledger.List(ctx, store.ListCertificatesOptions{IssuerMode: "x509"})
		require.NoError(t, err)
		require.Len(t, certs, 1)
	})

	require.NoError(t, Cleanup(ctx, cfg, res))
}
