package credentials

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/rs/zerolog"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider loads JSON encoded credentials from AWS Secrets Manager.
type SecretsManagerProvider struct {
	client            SecretsManagerAPI
	signingSecretName string
	caSecretName      string
}

// NewSecretsManagerProvider creates a provider, empty names fall back to the defaults.
func NewSecretsManagerProvider(client SecretsManagerAPI, signingSecretName, caSecretName string) *SecretsManagerProvider {
	if signingSecretName == "" {
		signingSecretName = DefaultSigningSecretName
	}
	if caSecretName == "" {
		caSecretName = DefaultCASecretName
	}

	return &SecretsManagerProvider{
		client:            client,
		signingSecretName: signingSecretName,
		caSecretName:      caSecretName,
	}
}

// SigningCredentials fetches and validates the signing secret.
func (p *SecretsManagerProvider) SigningCredentials(ctx context.Context) (*SigningCredentials, error) {
	value, err := p.getSecret(ctx, p.signingSecretName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("secret", p.signingSecretName).Msg("failed to retrieve signing credentials")
		return nil, wrapSigning(err)
	}

	creds, err := decodeSigningSecret(value)
	if err != nil {
		return nil, wrapSigning(err)
	}

	return creds, nil
}

// CACredentials fetches and validates the CA secret.
func (p *SecretsManagerProvider) CACredentials(ctx context.Context) (*CACredentials, error) {
	value, err := p.getSecret(ctx, p.caSecretName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("secret", p.caSecretName).Msg("failed to retrieve CA credentials")
		return nil, wrapCA(err)
	}

	creds, err := decodeCASecret(value)
	if err != nil {
		return nil, wrapCA(err)
	}

	return creds, nil
}

func (p *SecretsManagerProvider) getSecret(ctx context.Context, name string) (string, error) {
	output, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(output.SecretString), nil
}
