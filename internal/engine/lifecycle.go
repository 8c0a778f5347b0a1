package engine

import (
	"fmt"
	"time"

	"surgepark/internal/db"
	apperr "surgepark/internal/errors"
)

// CanTransition reports whether the reservation state machine allows from -> to.
// BOOKED -> BOOKED is an edit.
func CanTransition(from, to db.ReservationStatus) bool {
	if from != db.StatusBooked {
		return false
	}
	switch to {
	case db.StatusBooked, db.StatusCancelled, db.StatusFailed:
		return true
	}
	return false
}

func transition(r *db.Reservation, to db.ReservationStatus) error {
	if r == nil {
		return fmt.Errorf("reservation: %w", apperr.ErrNotFound)
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("reservation %s is %s, cannot move to %s: %w", r.ID, r.Status, to, apperr.ErrInvalidState)
	}
	return nil
}

// Cancel moves a BOOKED reservation to CANCELLED and resets the charged amount.
func Cancel(r *db.Reservation, now time.Time) error {
	if err := transition(r, db.StatusCancelled); err != nil {
		return err
	}
	r.Status = db.StatusCancelled
	r.Amount = 0
	r.UpdatedAt = now
	return nil
}

// Fail records an external payment failure.
func Fail(r *db.Reservation, now time.Time) error {
	if err := transition(r, db.StatusFailed); err != nil {
		return err
	}
	r.Status = db.StatusFailed
	r.UpdatedAt = now
	return nil
}

// Reschedule applies an edit that CheckAvailability has already admitted with
// r excluded from the count. The charged amount is left as is.
func Reschedule(r *db.Reservation, day time.Time, w TimeWindow, now time.Time) error {
	if err := transition(r, db.StatusBooked); err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	r.BookingDate = DayOf(day)
	r.StartTime = w.Start
	r.EndTime = w.End
	r.UpdatedAt = now
	return nil
}
