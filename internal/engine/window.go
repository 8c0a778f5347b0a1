// Package engine holds the availability and surge-pricing rules for parking
// locations. Everything here is pure: callers hand in location and reservation
// snapshots (or lazy samplers) and persist the outcome themselves.
package engine

import (
	"fmt"
	"time"

	"surgepark/internal/db"
	apperr "surgepark/internal/errors"
)

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow returns the window [start, end) or an InvalidInput error.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	w := TimeWindow{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

// Validate rejects zero-length and inverted windows.
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("window start and end are required: %w", apperr.ErrInvalidInput)
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("window end %s must be after start %s: %w",
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339), apperr.ErrInvalidInput)
	}
	return nil
}

// Overlaps uses the strict rule: a window ending exactly when another starts
// does not overlap it.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Overlaps reports whether a and b share an instant.
func Overlaps(a, b TimeWindow) bool {
	return a.Overlaps(b)
}

// DurationHours is the window length in minutes divided by 60, unrounded.
func (w TimeWindow) DurationHours() float64 {
	return w.End.Sub(w.Start).Minutes() / 60
}

// WindowOf is the reserved window of r.
func WindowOf(r db.Reservation) TimeWindow {
	return TimeWindow{Start: r.StartTime, End: r.EndTime}
}

// WindowOnDay builds a window from "HH:MM" clock times on day. Both instants
// are anchored to the same calendar date.
func WindowOnDay(day time.Time, start, end string) (TimeWindow, error) {
	s, err := clockOnDay(day, start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := clockOnDay(day, end)
	if err != nil {
		return TimeWindow{}, err
	}
	return NewTimeWindow(s, e)
}

func clockOnDay(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("time of day %q must be HH:MM: %w", clock, apperr.ErrInvalidInput)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// SameDay compares calendar dates, ignoring the zones a and b carry. A DATE
// column read back by the driver is midnight UTC, while request days are
// midnight in the service zone.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
