// Package postgres implements the certificate ledger on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/c2pa-signer/internal/store"
)

// CertificateStore implements store.CertificateStore using PostgreSQL.
type CertificateStore struct {
	pool *pgxpool.Pool
	cfg  CertificateStoreConfig
}

// NewCertificateStore creates a PostgreSQL-backed certificate ledger on an existing pool,
// applying migrations first when cfg.AutoMigrate is set.
func NewCertificateStore(ctx context.Context, pool *pgxpool.Pool, cfg CertificateStoreConfig) (*CertificateStore, error) {
	cfg.ApplyDefaults()

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &CertificateStore{
		pool: pool,
		cfg:  cfg,
	}, nil
}

func (s *CertificateStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.QueryTimeoutSeconds)*time.Second)
}

// Register inserts a record, a duplicate serial number returns store.ErrCertAlreadyExists.
func (s *CertificateStore) Register(ctx context.Context, cert *store.CertRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO issued_certificates (
			serial_number, certificate_id, subject, csr_fingerprint,
			issuer_mode, issued_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		cert.SerialNumber,
		cert.CertificateID,
		cert.Subject,
		cert.CSRFingerprint,
		cert.IssuerMode,
		cert.IssuedAt,
		cert.ExpiresAt,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("serial_number", cert.SerialNumber).
		Str("certificate_id", cert.CertificateID).
		Msg("certificate registered")

	return nil
}

// Get retrieves a record by serial number.
func (s *CertificateStore) Get(ctx context.Context, serialNumber string) (*store.CertRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, selectColumns+` WHERE serial_number = $1`, serialNumber)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	cert, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCertNotFound
		}
		return nil, mapPostgresError(err)
	}

	return cert, nil
}

// List returns records newest first.
func (s *CertificateStore) List(ctx context.Context, opts store.ListCertificatesOptions) ([]*store.CertRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// a NULL limit means no limit
	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	rows, err := s.pool.Query(ctx, selectColumns+`
		WHERE ($1 = '' OR issuer_mode = $1)
		ORDER BY issued_at DESC, serial_number
		LIMIT $2
	`, opts.IssuerMode, limit)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	certs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return certs, nil
}

const selectColumns = `
	SELECT serial_number, certificate_id, subject, csr_fingerprint,
	       issuer_mode, issued_at, expires_at
	FROM issued_certificates`

func scanRecord(row pgx.CollectableRow) (*store.CertRecord, error) {
	var cert store.CertRecord
	err := row.Scan(
		&cert.SerialNumber,
		&cert.CertificateID,
		&cert.Subject,
		&cert.CSRFingerprint,
		&cert.IssuerMode,
		&cert.IssuedAt,
		&cert.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	cert.IssuedAt = cert.IssuedAt.UTC()
	cert.ExpiresAt = cert.ExpiresAt.UTC()

	return &cert, nil
}
