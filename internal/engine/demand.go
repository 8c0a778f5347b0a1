package engine

import (
	"time"

	"surgepark/internal/db"
)

// DemandSampler returns the current demand count for the window being priced.
// The pricer only calls it when dynamic pricing is enabled.
type DemandSampler func() (int, error)

// SampleDemand counts BOOKED reservations of locationID overlapping w that
// were booked for the calendar day of day.
func SampleDemand(snapshot []db.Reservation, locationID string, w TimeWindow, day time.Time) int {
	n := 0
	for _, r := range snapshot {
		if r.Status != db.StatusBooked || r.LocationID != locationID {
			continue
		}
		if !SameDay(r.BookingDate, day) {
			continue
		}
		if WindowOf(r).Overlaps(w) {
			n++
		}
	}
	return n
}

// StaticDemand is a sampler for an already-known count.
func StaticDemand(n int) DemandSampler {
	return func() (int, error) { return n, nil }
}
