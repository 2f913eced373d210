package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfeidau/c2pa-signer/internal/store"
)

// mapPostgresError maps PostgreSQL errors onto the ledger errors, non PostgreSQL errors
// are returned unchanged.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		// serial number or certificate id already recorded
		return fmt.Errorf("%w: %s", store.ErrCertAlreadyExists, pgErr.ConstraintName)

	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return fmt.Errorf("invalid certificate record: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code) && pgErr.Code != pgerrcode.QueryCanceled,
		pgerrcode.IsInsufficientResources(pgErr.Code):
		return fmt.Errorf("ledger database unavailable: %w", err)

	case pgErr.Code == pgerrcode.QueryCanceled:
		return fmt.Errorf("ledger query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s] %s: %w", pgErr.Code, pgErr.Message, err)
	}
}
