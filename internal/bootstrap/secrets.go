package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// PutSecretJSON stores v as a JSON secret. An existing secret is overwritten when
// overwrite is set and left untouched otherwise. Reports whether a value was written.
func PutSecretJSON(ctx context.Context, client *secretsmanager.Client, name string, v any, overwrite bool) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal secret %s: %w", name, err)
	}

	_, err = client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(string(data)),
	})
	if err == nil {
		return true, nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return false, fmt.Errorf("failed to create secret %s: %w", name, err)
	}

	if !overwrite {
		return false, nil
	}

	_, err = client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(string(data)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to update secret %s: %w", name, err)
	}

	return true, nil
}

// deleteSecretIfExists removes a secret without a recovery window
func deleteSecretIfExists(ctx context.Context, client *secretsmanager.Client, name string) error {
	_, err := client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
