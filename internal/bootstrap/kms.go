package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// CreateSigningKey returns the ID of the P-256 signing key behind alias, creating
// the key and alias when the alias does not exist yet.
func CreateSigningKey(ctx context.Context, client *kms.Client, alias string) (string, error) {
	desc, err := client.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: aws.String(alias)})
	if err == nil {
		return aws.ToString(desc.KeyMetadata.KeyId), nil
	}

	var notFound *types.NotFoundException
	if !errors.As(err, &notFound) {
		return "", fmt.Errorf("failed to describe key %s: %w", alias, err)
	}

	created, err := client.CreateKey(ctx, &kms.CreateKeyInput{
		KeySpec:     types.KeySpecEccNistP256,
		KeyUsage:    types.KeyUsageTypeSignVerify,
		Description: aws.String("C2PA claim signing key"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create key: %w", err)
	}

	keyID := aws.ToString(created.KeyMetadata.KeyId)

	_, err = client.CreateAlias(ctx, &kms.CreateAliasInput{
		AliasName:   aws.String(alias),
		TargetKeyId: aws.String(keyID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create alias %s: %w", alias, err)
	}

	return keyID, nil
}
