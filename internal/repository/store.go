package repository

import (
	"context"
	"time"

	"surgepark/internal/db"
	"surgepark/internal/engine"
)

// ReservationFilter narrows ListReservations. Zero fields match everything.
type ReservationFilter struct {
	BookingDate *time.Time
	LocationID  string
	Status      db.ReservationStatus
}

type LocationStore interface {
	GetLocation(ctx context.Context, id string) (*db.Location, error)
	CreateLocation(ctx context.Context, loc *db.Location) error
	ListLocations(ctx context.Context) ([]db.Location, error)
	SetDynamicPricing(ctx context.Context, id string, enabled bool) error
	SetCategory(ctx context.Context, id string, category db.Category) error
	SetStatus(ctx context.Context, id string, status db.LocationStatus) error
}

type ReservationStore interface {
	GetReservation(ctx context.Context, id string) (*db.Reservation, error)
	GetReservationBySessionID(ctx context.Context, sessionID string) (*db.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]db.Reservation, error)
	// BookedCounts returns, per location, how many BOOKED reservations
	// overlap w. Locations with no overlap are absent from the map.
	BookedCounts(ctx context.Context, w engine.TimeWindow) (map[string]int, error)
	UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error
}

// JobStore backs the abandoned-checkout sweeper.
type JobStore interface {
	ListStalePending(ctx context.Context, before time.Time) ([]db.Reservation, error)
	// FailReservations moves the given reservations to FAILED if they are
	// still BOOKED with a pending payment and returns how many changed.
	FailReservations(ctx context.Context, ids []string, now time.Time) (int64, error)
}

// LocationTx is a serialized section for one location. Every admission check
// and every write that can change the location's occupancy happens inside one.
type LocationTx interface {
	Location() *db.Location
	// Reservation loads a reservation of this location for update.
	Reservation(ctx context.Context, id string) (*db.Reservation, error)
	// ActiveOverlaps lists BOOKED reservations of this location overlapping
	// w. When day is set only reservations booked for that calendar day are
	// returned.
	ActiveOverlaps(ctx context.Context, w engine.TimeWindow, day *time.Time) ([]db.Reservation, error)
	InsertReservation(ctx context.Context, r *db.Reservation) error
	UpdateReservation(ctx context.Context, r *db.Reservation) error
	// UpdatePayment records payment state in the same section, so it commits
	// or rolls back together with a lifecycle change.
	UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error
}

type Store interface {
	LocationStore
	ReservationStore
	JobStore
	// WithinLocation runs fn while holding the location's lock. Writes made
	// through tx become visible only if fn returns nil.
	WithinLocation(ctx context.Context, locationID string, fn func(tx LocationTx) error) error
}
