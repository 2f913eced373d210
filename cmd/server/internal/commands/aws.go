package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const localStackEndpoint = "http://localhost:4566"

type AWSFlags struct {
	Region   string `help:"AWS region" default:"us-east-1" env:"AWS_REGION"`
	Endpoint string `help:"AWS endpoint URL override (for LocalStack)" default:"" env:"AWS_ENDPOINT_URL"`
}

// load builds the shared AWS config, static test credentials are used against LocalStack
func (a *AWSFlags) load(ctx context.Context, localStack bool) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(a.Region),
	}
	if localStack {
		opts = append(opts, config.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider("test", "test", "test")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}

func (a *AWSFlags) dynamoDB(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
	})
}

func (a *AWSFlags) secretsManager(cfg aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
	})
}

func (a *AWSFlags) ssm(cfg aws.Config) *ssm.Client {
	return ssm.NewFromConfig(cfg, func(o *ssm.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
	})
}

func (a *AWSFlags) kms(cfg aws.Config) *kms.Client {
	return kms.NewFromConfig(cfg, func(o *kms.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
	})
}
