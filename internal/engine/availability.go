package engine

import (
	"fmt"

	"surgepark/internal/db"
	apperr "surgepark/internal/errors"
)

const (
	ReasonCapacityExceeded    = "capacity exceeded"
	ReasonLocationUnavailable = "location unavailable"
)

// Availability is the outcome of an admission check. A refusal is a normal
// result, not an error.
type Availability struct {
	Admitted           bool
	ActiveOverlapCount int
	Capacity           int
	Reason             string
}

// CountActiveOverlaps counts BOOKED reservations of locationID whose window
// overlaps w. The reservation with id excludeID, if any, is skipped so an edit
// never collides with its own row.
func CountActiveOverlaps(snapshot []db.Reservation, locationID string, w TimeWindow, excludeID string) int {
	n := 0
	for _, r := range snapshot {
		if r.Status != db.StatusBooked || r.LocationID != locationID {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if WindowOf(r).Overlaps(w) {
			n++
		}
	}
	return n
}

// CheckAvailability decides whether one more reservation fits at loc during w.
// It must run inside the store's per-location serialized section so that the
// snapshot cannot go stale before the caller persists the reservation.
func CheckAvailability(loc *db.Location, w TimeWindow, snapshot []db.Reservation, excludeID string) (Availability, error) {
	if loc == nil {
		return Availability{}, fmt.Errorf("location: %w", apperr.ErrNotFound)
	}
	if err := w.Validate(); err != nil {
		return Availability{}, err
	}
	if loc.NumberOfSpots < 0 {
		return Availability{}, fmt.Errorf("location %s has negative capacity %d: %w",
			loc.ID, loc.NumberOfSpots, apperr.ErrInvalidInput)
	}

	res := Availability{Capacity: loc.NumberOfSpots}
	if !loc.Available() {
		res.Reason = ReasonLocationUnavailable
		return res, nil
	}

	res.ActiveOverlapCount = CountActiveOverlaps(snapshot, loc.ID, w, excludeID)
	res.Admitted = res.ActiveOverlapCount < loc.NumberOfSpots
	if !res.Admitted {
		res.Reason = ReasonCapacityExceeded
	}
	return res, nil
}
