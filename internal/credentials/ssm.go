package credentials

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
)

// SSMAPI is the subset of the SSM client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider loads the same JSON documents as SecretsManagerProvider from
// SecureString parameters in SSM Parameter Store.
type SSMProvider struct {
	client               SSMAPI
	signingParameterName string
	caParameterName      string
}

// NewSSMProvider creates a provider, empty names fall back to the defaults.
func NewSSMProvider(client SSMAPI, signingParameterName, caParameterName string) *SSMProvider {
	if signingParameterName == "" {
		signingParameterName = DefaultSigningSecretName
	}
	if caParameterName == "" {
		caParameterName = DefaultCASecretName
	}

	return &SSMProvider{
		client:               client,
		signingParameterName: signingParameterName,
		caParameterName:      caParameterName,
	}
}

// SigningCredentials fetches and validates the signing parameter.
func (p *SSMProvider) SigningCredentials(ctx context.Context) (*SigningCredentials, error) {
	value, err := p.getParameter(ctx, p.signingParameterName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("parameter", p.signingParameterName).Msg("failed to retrieve signing credentials")
		return nil, wrapSigning(err)
	}

	creds, err := decodeSigningSecret(value)
	if err != nil {
		return nil, wrapSigning(err)
	}

	return creds, nil
}

// CACredentials fetches and validates the CA parameter.
func (p *SSMProvider) CACredentials(ctx context.Context) (*CACredentials, error) {
	value, err := p.getParameter(ctx, p.caParameterName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("parameter", p.caParameterName).Msg("failed to retrieve CA credentials")
		return nil, wrapCA(err)
	}

	creds, err := decodeCASecret(value)
	if err != nil {
		return nil, wrapCA(err)
	}

	return creds, nil
}

// getParameter fetches a decrypted parameter, a missing value is reported as empty
func (p *SSMProvider) getParameter(ctx context.Context, name string) (string, error) {
	output, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if output.Parameter == nil {
		return "", nil
	}
	return aws.ToString(output.Parameter.Value), nil
}
