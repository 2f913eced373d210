package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/c2pa-signer/internal/store"
	postgresstore "github.com/wolfeidau/c2pa-signer/internal/store/postgres"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

const (
	ledgerNone     = "none"
	ledgerMemory   = "memory"
	ledgerDynamoDB = "dynamodb"
	ledgerPostgres = "postgres"
)

type LedgerFlags struct {
	Ledger         string              `help:"issued certificate ledger (none, memory, dynamodb or postgres)" default:"none" env:"C2PA_LEDGER" enum:"none,memory,dynamodb,postgres"`
	LedgerTable    string              `help:"DynamoDB table for the certificate ledger" default:"c2pa-issued-certificates" env:"C2PA_LEDGER_TABLE"`
	LedgerCapacity int                 `help:"maximum records held by the memory ledger, oldest evicted first" default:"1000" env:"C2PA_LEDGER_CAPACITY"`
	Postgres       PostgresLedgerFlags `embed:"" prefix:"postgres-"`
}

type PostgresLedgerFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns int `help:"maximum number of connections in pool" default:"10"`
	MinConns int `help:"minimum number of connections in pool" default:"1"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"true" env:"C2PA_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresLedgerFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// open creates the configured ledger, the returned close function is always safe to call
func (l *LedgerFlags) open(ctx context.Context, awsFlags *AWSFlags, awsCfg aws.Config) (store.CertificateStore, func(), error) {
	log := zerolog.Ctx(ctx)
	noop := func() {}

	switch l.Ledger {
	case ledgerNone:
		log.Info().Msg("Certificate ledger disabled")
		return nil, noop, nil

	case ledgerDynamoDB:
		log.Info().Str("table", l.LedgerTable).Msg("Using DynamoDB certificate ledger")
		return store.NewDynamoDBCertificateStore(awsFlags.dynamoDB(awsCfg), l.LedgerTable), noop, nil

	case ledgerPostgres:
		if err := l.Postgres.validate(); err != nil {
			return nil, noop, err
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString: l.Postgres.ConnString,
			MaxConns:   util.AsInt32(l.Postgres.MaxConns),
			MinConns:   util.AsInt32(l.Postgres.MinConns),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create connection pool: %w", err)
		}

		ledger, err := postgresstore.NewCertificateStore(ctx, pool, postgresstore.CertificateStoreConfig{
			AutoMigrate: l.Postgres.AutoMigrate,
		})
		if err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to create certificate store: %w", err)
		}

		log.Info().Bool("auto_migrate", l.Postgres.AutoMigrate).Msg("Using PostgreSQL certificate ledger")
		return ledger, pool.Close, nil

	default:
		log.Info().Int("capacity", l.LedgerCapacity).Msg("Using in-memory certificate ledger")
		return store.NewBoundedMemoryCertificateStore(l.LedgerCapacity), noop, nil
	}
}
