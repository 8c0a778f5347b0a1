package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"surgepark/internal/db"
	"surgepark/internal/engine"
)

const reservationColumns = `id, code, location_id, booking_date, start_time, end_time, status, plate, amount, surge_multiplier,
	user_name, user_email, user_phone, language, stripe_session_id, payment_status, created_at, updated_at`

func scanReservation(row rowScanner) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(
		&res.ID, &res.Code, &res.LocationID, &res.BookingDate, &res.StartTime, &res.EndTime, &res.Status,
		&res.Plate, &res.Amount, &res.SurgeMultiplier, &res.UserName, &res.UserEmail, &res.UserPhone,
		&res.Language, &res.StripeSessionID, &res.PaymentStatus, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]db.Reservation, error) {
	defer rows.Close()

	var reservations []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating reservations: %w", err)
	}
	return reservations, nil
}

func (s *PostgresStore) GetReservation(ctx context.Context, id string) (*db.Reservation, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}
	return res, nil
}

func (s *PostgresStore) ListReservations(ctx context.Context, f ReservationFilter) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.BookingDate != nil {
		query += " AND booking_date = $" + strconv.Itoa(idx)
		args = append(args, dateParam(*f.BookingDate))
		idx++
	}
	if f.LocationID != "" {
		query += " AND location_id = $" + strconv.Itoa(idx)
		args = append(args, f.LocationID)
		idx++
	}
	if f.Status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, f.Status)
		idx++
	}
	query += " ORDER BY start_time DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations: %w", err)
	}
	return scanReservations(rows)
}

func (s *PostgresStore) BookedCounts(ctx context.Context, w engine.TimeWindow) (map[string]int, error) {
	query := `
		SELECT location_id, COUNT(*)
		FROM reservations
		WHERE status = $1 AND start_time < $3 AND end_time > $2
		GROUP BY location_id`
	rows, err := s.DB.QueryContext(ctx, query, db.StatusBooked, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("error counting booked reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var locationID string
		var n int
		if err := rows.Scan(&locationID, &n); err != nil {
			return nil, fmt.Errorf("error scanning booked count: %w", err)
		}
		counts[locationID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booked counts: %w", err)
	}
	return counts, nil
}

// dateParam formats a calendar day for a DATE column in the day's own zone,
// so the session time zone cannot shift it.
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

// pgLocationTx runs inside the transaction that holds the location row lock.
type pgLocationTx struct {
	tx  *sql.Tx
	loc *db.Location
}

func (t *pgLocationTx) Location() *db.Location {
	return t.loc
}

func (t *pgLocationTx) Reservation(ctx context.Context, id string) (*db.Reservation, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 AND location_id = $2 FOR UPDATE`, id, t.loc.ID)
	res, err := scanReservation(row)
	if err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}
	return res, nil
}

func (t *pgLocationTx) ActiveOverlaps(ctx context.Context, w engine.TimeWindow, day *time.Time) ([]db.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE location_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3`
	args := []interface{}{t.loc.ID, db.StatusBooked, w.Start, w.End}
	if day != nil {
		query += " AND booking_date = $5"
		args = append(args, dateParam(*day))
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying overlapping reservations: %w", err)
	}
	return scanReservations(rows)
}

func (t *pgLocationTx) InsertReservation(ctx context.Context, res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(id, code, location_id, booking_date, start_time, end_time, status, plate, amount, surge_multiplier,
		 user_name, user_email, user_phone, language, stripe_session_id, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := t.tx.ExecContext(ctx, query,
		res.ID,
		res.Code,
		res.LocationID,
		dateParam(res.BookingDate),
		res.StartTime,
		res.EndTime,
		res.Status,
		res.Plate,
		res.Amount,
		res.SurgeMultiplier,
		res.UserName,
		res.UserEmail,
		res.UserPhone,
		res.Language,
		res.StripeSessionID,
		res.PaymentStatus,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

// UpdateReservation persists the fields the lifecycle may change.
func (t *pgLocationTx) UpdateReservation(ctx context.Context, res *db.Reservation) error {
	query := `
		UPDATE reservations
		SET booking_date = $2, start_time = $3, end_time = $4, status = $5, amount = $6, updated_at = $7
		WHERE id = $1 AND location_id = $8`
	result, err := t.tx.ExecContext(ctx, query,
		res.ID, dateParam(res.BookingDate), res.StartTime, res.EndTime, res.Status, res.Amount, res.UpdatedAt, t.loc.ID)
	if err != nil {
		return fmt.Errorf("error updating reservation %s: %w", res.ID, err)
	}
	return expectOneRow(result, "reservation", res.ID)
}

func (t *pgLocationTx) UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error {
	query := `
		UPDATE reservations
		SET stripe_session_id = $2, payment_status = $3, updated_at = $4
		WHERE id = $1 AND location_id = $5`
	result, err := t.tx.ExecContext(ctx, query, id, sessionID, paymentStatus, time.Now().UTC(), t.loc.ID)
	if err != nil {
		return fmt.Errorf("error updating payment info for reservation %s: %w", id, err)
	}
	return expectOneRow(result, "reservation", id)
}
