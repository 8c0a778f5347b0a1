package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperr "surgepark/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store on top of a lib/pq connection pool.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}

// WithinLocation opens a transaction and locks the location row with
// SELECT ... FOR UPDATE, so concurrent admissions for the same location queue
// behind each other until commit.
func (s *PostgresStore) WithinLocation(ctx context.Context, locationID string, fn func(tx LocationTx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM parking_locations WHERE id = $1 FOR UPDATE`, locationID)
	loc, err := scanLocation(row)
	if err != nil {
		return notFoundOr(err, "location", locationID)
	}

	if err = fn(&pgLocationTx{tx: tx, loc: loc}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing location %s: %w", locationID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// notFoundOr maps a missing row, or an id Postgres cannot parse as a UUID, to
// ErrNotFound.
func notFoundOr(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return fmt.Errorf("error querying %s %s: %w", what, id, err)
}

func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for %s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return nil
}
