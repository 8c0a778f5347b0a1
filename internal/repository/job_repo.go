package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"surgepark/internal/db"
)

// ListStalePending finds BOOKED reservations whose checkout is still pending
// and that were created before the cutoff.
func (s *PostgresStore) ListStalePending(ctx context.Context, before time.Time) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = $1 AND payment_status = $2 AND created_at < $3`
	rows, err := s.DB.QueryContext(ctx, query, db.StatusBooked, db.PaymentPending, before)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending reservations: %w", err)
	}
	return scanReservations(rows)
}

func (s *PostgresStore) FailReservations(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		UPDATE reservations SET status = $1, updated_at = $2
		WHERE id = ANY($3) AND status = $4 AND payment_status = $5`
	result, err := s.DB.ExecContext(ctx, query, db.StatusFailed, now, pq.Array(ids), db.StatusBooked, db.PaymentPending)
	if err != nil {
		return 0, fmt.Errorf("error failing stale reservations: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n, nil
}
