package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// wrapAWSError wraps AWS SDK errors with context.
// Returns ErrThrottled for throttling errors, otherwise wraps the original error
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var provisionedErr *types.ProvisionedThroughputExceededException
	if errors.As(err, &provisionedErr) {
		return fmt.Errorf("%s: %w: %w", msg, ErrThrottled, err)
	}

	// AWS SDK v2 doesn't always use typed errors for throttling
	errMsg := err.Error()
	if strings.Contains(errMsg, "ThrottlingException") ||
		strings.Contains(errMsg, "RequestLimitExceeded") ||
		strings.Contains(errMsg, "TooManyRequestsException") ||
		strings.Contains(errMsg, "Throttling") {
		return fmt.Errorf("%s: %w: %w", msg, ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
