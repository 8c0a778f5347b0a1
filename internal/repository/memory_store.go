package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"surgepark/internal/db"
	"surgepark/internal/engine"
	apperr "surgepark/internal/errors"
)

// MemoryStore is an in-process Store. Each location has its own mutex, held
// for the whole of WithinLocation, so different locations never wait on
// each other.
type MemoryStore struct {
	mu           sync.RWMutex
	locations    map[string]db.Location
	reservations map[string]db.Reservation
	locks        map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations:    make(map[string]db.Location),
		reservations: make(map[string]db.Reservation),
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) lockFor(locationID string) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[locationID]; !ok {
		return nil, fmt.Errorf("location %s: %w", locationID, apperr.ErrNotFound)
	}
	l, ok := s.locks[locationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[locationID] = l
	}
	return l, nil
}

func (s *MemoryStore) WithinLocation(ctx context.Context, locationID string, fn func(tx LocationTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock, err := s.lockFor(locationID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	// read the flags only once the lock is held
	loc, err := s.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}

	tx := &memLocationTx{
		store:   s,
		loc:     loc,
		pending: make(map[string]db.Reservation),
		changes: make(map[string]rowChange),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range tx.pending {
		change := tx.changes[id]
		if change&changeInsert != 0 {
			s.reservations[id] = r
			continue
		}
		// UpdatePayment outside the lock may have written since the tx read
		// the row; only the fields the tx changed are applied.
		cur, ok := s.reservations[id]
		if !ok {
			continue
		}
		if change&changeLifecycle != 0 {
			cur.BookingDate = r.BookingDate
			cur.StartTime = r.StartTime
			cur.EndTime = r.EndTime
			cur.Status = r.Status
			cur.Amount = r.Amount
		}
		if change&changePayment != 0 {
			cur.StripeSessionID = r.StripeSessionID
			cur.PaymentStatus = r.PaymentStatus
		}
		cur.UpdatedAt = r.UpdatedAt
		s.reservations[id] = cur
	}
	return nil
}

func (s *MemoryStore) GetLocation(ctx context.Context, id string) (*db.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, apperr.ErrNotFound)
	}
	return &loc, nil
}

func (s *MemoryStore) CreateLocation(ctx context.Context, loc *db.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[loc.ID]; ok {
		return fmt.Errorf("location %s already exists: %w", loc.ID, apperr.ErrInvalidInput)
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *MemoryStore) ListLocations(ctx context.Context) ([]db.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]db.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SetDynamicPricing(ctx context.Context, id string, enabled bool) error {
	return s.mutateLocation(id, func(loc *db.Location) { loc.DynamicPricing = enabled })
}

func (s *MemoryStore) SetCategory(ctx context.Context, id string, category db.Category) error {
	return s.mutateLocation(id, func(loc *db.Location) { loc.Category = category })
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status db.LocationStatus) error {
	return s.mutateLocation(id, func(loc *db.Location) { loc.Status = status })
}

// mutateLocation waits for any running WithinLocation on id, like the row
// lock an UPDATE takes in Postgres.
func (s *MemoryStore) mutateLocation(id string, apply func(loc *db.Location)) error {
	lock, err := s.lockFor(id)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.locations[id]
	apply(&loc)
	loc.UpdatedAt = time.Now().UTC()
	s.locations[id] = loc
	return nil
}

func (s *MemoryStore) GetReservation(ctx context.Context, id string) (*db.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, apperr.ErrNotFound)
	}
	return &r, nil
}

func (s *MemoryStore) GetReservationBySessionID(ctx context.Context, sessionID string) (*db.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID != "" {
		for _, r := range s.reservations {
			if r.StripeSessionID == sessionID {
				return &r, nil
			}
		}
	}
	return nil, fmt.Errorf("reservation for session %s: %w", sessionID, apperr.ErrNotFound)
}

func (s *MemoryStore) ListReservations(ctx context.Context, f ReservationFilter) ([]db.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Reservation
	for _, r := range s.reservations {
		if f.BookingDate != nil && !engine.SameDay(r.BookingDate, *f.BookingDate) {
			continue
		}
		if f.LocationID != "" && r.LocationID != f.LocationID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) BookedCounts(ctx context.Context, w engine.TimeWindow) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.reservations {
		if r.Status == db.StatusBooked && engine.WindowOf(r).Overlaps(w) {
			counts[r.LocationID]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, apperr.ErrNotFound)
	}
	r.StripeSessionID = sessionID
	r.PaymentStatus = paymentStatus
	r.UpdatedAt = time.Now().UTC()
	s.reservations[id] = r
	return nil
}

func (s *MemoryStore) ListStalePending(ctx context.Context, before time.Time) ([]db.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Reservation
	for _, r := range s.reservations {
		if r.Status == db.StatusBooked && r.PaymentStatus == db.PaymentPending && r.CreatedAt.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) FailReservations(ctx context.Context, ids []string, now time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			continue
		}
		err = s.WithinLocation(ctx, r.LocationID, func(tx LocationTx) error {
			cur, err := tx.Reservation(ctx, id)
			if err != nil {
				return err
			}
			if cur.Status != db.StatusBooked || cur.PaymentStatus != db.PaymentPending {
				return nil
			}
			if err := engine.Fail(cur, now); err != nil {
				return err
			}
			if err := tx.UpdateReservation(ctx, cur); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type rowChange uint8

const (
	changeInsert rowChange = 1 << iota
	changeLifecycle
	changePayment
)

type memLocationTx struct {
	store   *MemoryStore
	loc     *db.Location
	pending map[string]db.Reservation
	changes map[string]rowChange
}

func (t *memLocationTx) Location() *db.Location {
	return t.loc
}

func (t *memLocationTx) lookup(id string) (db.Reservation, bool) {
	if r, ok := t.pending[id]; ok {
		return r, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.reservations[id]
	return r, ok
}

func (t *memLocationTx) Reservation(ctx context.Context, id string) (*db.Reservation, error) {
	r, ok := t.lookup(id)
	if !ok || r.LocationID != t.loc.ID {
		return nil, fmt.Errorf("reservation %s: %w", id, apperr.ErrNotFound)
	}
	return &r, nil
}

func (t *memLocationTx) ActiveOverlaps(ctx context.Context, w engine.TimeWindow, day *time.Time) ([]db.Reservation, error) {
	merged := make(map[string]db.Reservation)
	t.store.mu.RLock()
	for id, r := range t.store.reservations {
		if r.LocationID == t.loc.ID {
			merged[id] = r
		}
	}
	t.store.mu.RUnlock()
	for id, r := range t.pending {
		merged[id] = r
	}

	var out []db.Reservation
	for _, r := range merged {
		if r.Status != db.StatusBooked || !engine.WindowOf(r).Overlaps(w) {
			continue
		}
		if day != nil && !engine.SameDay(r.BookingDate, *day) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (t *memLocationTx) InsertReservation(ctx context.Context, r *db.Reservation) error {
	if r.LocationID != t.loc.ID {
		return fmt.Errorf("reservation for location %s inserted under %s: %w", r.LocationID, t.loc.ID, apperr.ErrInvalidInput)
	}
	if _, exists := t.lookup(r.ID); exists {
		return fmt.Errorf("reservation %s already exists: %w", r.ID, apperr.ErrInvalidInput)
	}
	t.pending[r.ID] = *r
	t.changes[r.ID] |= changeInsert
	return nil
}

func (t *memLocationTx) UpdateReservation(ctx context.Context, r *db.Reservation) error {
	cur, ok := t.lookup(r.ID)
	if !ok || cur.LocationID != t.loc.ID {
		return fmt.Errorf("reservation %s: %w", r.ID, apperr.ErrNotFound)
	}
	cur.BookingDate = r.BookingDate
	cur.StartTime = r.StartTime
	cur.EndTime = r.EndTime
	cur.Status = r.Status
	cur.Amount = r.Amount
	cur.UpdatedAt = r.UpdatedAt
	t.pending[r.ID] = cur
	t.changes[r.ID] |= changeLifecycle
	return nil
}

func (t *memLocationTx) UpdatePayment(ctx context.Context, id, sessionID, paymentStatus string) error {
	cur, ok := t.lookup(id)
	if !ok || cur.LocationID != t.loc.ID {
		return fmt.Errorf("reservation %s: %w", id, apperr.ErrNotFound)
	}
	cur.StripeSessionID = sessionID
	cur.PaymentStatus = paymentStatus
	cur.UpdatedAt = time.Now().UTC()
	t.pending[id] = cur
	t.changes[id] |= changePayment
	return nil
}

// MemoryAdminRepository keeps admins in a map; passwords are still bcrypt
// hashed.
type MemoryAdminRepository struct {
	mu     sync.Mutex
	admins map[string]db.Admin
}

func NewMemoryAdminRepository() *MemoryAdminRepository {
	return &MemoryAdminRepository{admins: make(map[string]db.Admin)}
}

func (r *MemoryAdminRepository) GetByEmail(ctx context.Context, email string) (*db.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[email]
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

func (r *MemoryAdminRepository) CreateNewUser(ctx context.Context, email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[email]; ok {
		return fmt.Errorf("admin %s already exists: %w", email, apperr.ErrInvalidInput)
	}
	r.admins[email] = db.Admin{ID: len(r.admins) + 1, Email: email, PasswordHash: string(hashedPassword)}
	return nil
}
