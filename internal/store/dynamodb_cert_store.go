package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the ledger
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBCertificateStore is a DynamoDB implementation of CertificateStore.
// The table is keyed on serial_number with TTL enabled on the ttl attribute.
type DynamoDBCertificateStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDBCertificateStore creates a new DynamoDB certificate store
func NewDynamoDBCertificateStore(client DynamoDBAPI, tableName string) *DynamoDBCertificateStore {
	return &DynamoDBCertificateStore{
		client:    client,
		tableName: tableName,
	}
}

// Get retrieves a record by serial number
func (s *DynamoDBCertificateStore) Get(ctx context.Context, serialNumber string) (*CertRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"serial_number": &types.AttributeValueMemberS{Value: serialNumber},
		},
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get certificate")
	}

	if result.Item == nil {
		return nil, ErrCertNotFound
	}

	var cert CertRecord
	if err := attributevalue.UnmarshalMap(result.Item, &cert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
	}

	return &cert, nil
}

// Register stores a record
func (s *DynamoDBCertificateStore) Register(ctx context.Context, cert *CertRecord) error {
	item, err := attributevalue.MarshalMap(cert)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %w", err)
	}

	// Use ConditionExpression to prevent duplicates
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(serial_number)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrCertAlreadyExists
		}
		return wrapAWSError(err, "failed to register certificate")
	}

	log.Debug().
		Str("serial_number", cert.SerialNumber).
		Str("certificate_id", cert.CertificateID).
		Str("issuer_mode", cert.IssuerMode).
		Msg("certificate registered")

	return nil
}

// List scans the table and returns records, newest first. The ledger is small
// and append only so a full scan is acceptable.
func (s *DynamoDBCertificateStore) List(ctx context.Context, opts ListCertificatesOptions) ([]*CertRecord, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	}

	if opts.IssuerMode != "" {
		filter := expression.Name("issuer_mode").Equal(expression.Value(opts.IssuerMode))
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build filter expression: %w", err)
		}

		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var certs []*CertRecord

	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAWSError(err, "failed to list certificates")
		}

		for _, item := range page.Items {
			var cert CertRecord
			if err := attributevalue.UnmarshalMap(item, &cert); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal certificate, skipping")
				continue
			}
			certs = append(certs, &cert)
		}
	}

	return sortAndLimit(certs, opts.Limit), nil
}
