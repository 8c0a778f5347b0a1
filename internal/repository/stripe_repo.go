package repository

import (
	"context"
	"fmt"
	"time"

	"surgepark/internal/db"
)

func (s *PostgresStore) GetReservationBySessionID(ctx context.Context, sessionID string) (*db.Reservation, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE stripe_session_id = $1`, sessionID)
	res, err := scanReservation(row)
	if err != nil {
		return nil, notFoundOr(err, "reservation for session", sessionID)
	}
	return res, nil
}

// UpdatePayment records the checkout session and payment state of a
// reservation. It never touches the reservation status.
func (s *PostgresStore) UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error {
	query := `
		UPDATE reservations
		SET
			stripe_session_id = $2,
			payment_status = $3,
			updated_at = $4
		WHERE id = $1`

	res, err := s.DB.ExecContext(ctx, query, id, sessionID, paymentStatus, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error updating payment info for reservation %s: %w", id, err)
	}
	return expectOneRow(res, "reservation", id)
}
