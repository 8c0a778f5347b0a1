package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"surgepark/internal/db"
	"surgepark/internal/engine"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/events"
	"surgepark/internal/metrics"
	"surgepark/internal/repository"
	"surgepark/internal/utils"
	"surgepark/internal/weather"
)

const (
	statusFilterAll     = "ALL"
	defaultRadiusMeters = 1000
	refundTimeout       = 20 * time.Second
)

// NotAdmittedError is returned by Book and Reschedule when the location has
// no room for the window. The reservation is left untouched.
type NotAdmittedError struct {
	Availability engine.Availability
}

func (e *NotAdmittedError) Error() string {
	return fmt.Sprintf("reservation not admitted: %s (%d/%d)",
		e.Availability.Reason, e.Availability.ActiveOverlapCount, e.Availability.Capacity)
}

type Dependencies struct {
	Store    repository.Store
	Pricer   *engine.Pricer
	Weather  weather.Provider
	Payments PaymentGateway
	Notifier Notifier
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// Timezone anchors request dates and clock times.
	Timezone *time.Location
	Now      func() time.Time
}

type ReservationService struct {
	store    repository.Store
	pricer   *engine.Pricer
	weather  weather.Provider
	payments PaymentGateway
	notifier Notifier
	events   events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tz       *time.Location
	now      func() time.Time
}

func NewReservationService(d Dependencies) *ReservationService {
	s := &ReservationService{
		store:    d.Store,
		pricer:   d.Pricer,
		weather:  d.Weather,
		payments: d.Payments,
		notifier: d.Notifier,
		events:   d.Events,
		metrics:  d.Metrics,
		logger:   d.Logger,
		tz:       d.Timezone,
		now:      d.Now,
	}
	if s.pricer == nil {
		s.pricer = engine.NewPricer(engine.DefaultPricingConfig())
	}
	if s.events == nil {
		s.events = events.NoopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tz == nil {
		s.tz = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// parseSlot reads a "2006-01-02" date and two "15:04" clock times in the
// service timezone.
func (s *ReservationService) parseSlot(date, start, end string) (time.Time, engine.TimeWindow, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), s.tz)
	if err != nil {
		return time.Time{}, engine.TimeWindow{}, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, apperr.ErrInvalidInput)
	}
	w, err := engine.WindowOnDay(day, strings.TrimSpace(start), strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, engine.TimeWindow{}, err
	}
	return day, w, nil
}

// currentWeather is only consulted for dynamically priced locations. A
// provider failure prices without a weather term.
func (s *ReservationService) currentWeather(ctx context.Context, loc *db.Location) *engine.Weather {
	if s.weather == nil || !loc.DynamicPricing {
		return nil
	}
	wx, err := s.weather.Current(ctx, loc.Lat, loc.Lng)
	if err != nil {
		s.logger.Warn("weather_degraded", "location_id", loc.ID, "err", err)
		s.metrics.WeatherDegraded()
		return nil
	}
	return wx
}

func (s *ReservationService) CheckAvailability(ctx context.Context, req entities.WindowRequest) (*entities.AvailabilityResponse, error) {
	_, w, err := s.parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	var av engine.Availability
	err = s.store.WithinLocation(ctx, req.LocationID, func(tx repository.LocationTx) error {
		overlaps, err := tx.ActiveOverlaps(ctx, w, nil)
		if err != nil {
			return err
		}
		av, err = engine.CheckAvailability(tx.Location(), w, overlaps, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return availabilityResponse(req.LocationID, av), nil
}

// Quote prices a prospective window without booking it.
func (s *ReservationService) Quote(ctx context.Context, req entities.WindowRequest) (*entities.QuoteResponse, error) {
	day, w, err := s.parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	loc, err := s.store.GetLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	wx := s.currentWeather(ctx, loc)

	var q engine.Quote
	err = s.store.WithinLocation(ctx, loc.ID, func(tx repository.LocationTx) error {
		demand := func() (int, error) {
			overlaps, err := tx.ActiveOverlaps(ctx, w, &day)
			if err != nil {
				return 0, err
			}
			return engine.SampleDemand(overlaps, loc.ID, w, day), nil
		}
		q, err = s.pricer.Price(tx.Location(), w, day, wx, demand)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quoteResponse(loc.ID, q, wx != nil), nil
}

func (s *ReservationService) validateGuest(req *entities.ReservationRequest) error {
	req.Plate = utils.NormalizePlate(req.Plate)
	req.UserName = strings.TrimSpace(req.UserName)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.UserPhone = strings.TrimSpace(req.UserPhone)
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))

	if req.LocationID == "" {
		return fmt.Errorf("location_id is required: %w", apperr.ErrInvalidInput)
	}
	if req.Plate == "" {
		return fmt.Errorf("plate is required: %w", apperr.ErrInvalidInput)
	}
	if req.UserName == "" {
		return fmt.Errorf("user_name is required: %w", apperr.ErrInvalidInput)
	}
	if req.UserEmail != "" && !strings.Contains(req.UserEmail, "@") {
		return fmt.Errorf("user_email %q is not an email address: %w", req.UserEmail, apperr.ErrInvalidInput)
	}
	if req.Language == "" {
		req.Language = "en"
	}
	return nil
}

// Book admits, prices and stores a reservation in one serialized section of
// the location. Checkout, notifications and events follow the commit.
func (s *ReservationService) Book(ctx context.Context, req entities.ReservationRequest) (*entities.BookingResponse, error) {
	if err := s.validateGuest(&req); err != nil {
		return nil, err
	}
	day, w, err := s.parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	loc, err := s.store.GetLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	wx := s.currentWeather(ctx, loc)

	var (
		res db.Reservation
		q   engine.Quote
	)
	err = s.store.WithinLocation(ctx, loc.ID, func(tx repository.LocationTx) error {
		current := tx.Location()
		overlaps, err := tx.ActiveOverlaps(ctx, w, nil)
		if err != nil {
			return err
		}
		av, err := engine.CheckAvailability(current, w, overlaps, "")
		if err != nil {
			return err
		}
		if !av.Admitted {
			return &NotAdmittedError{Availability: av}
		}

		// the snapshot already holds every active overlap, any day
		demand := func() (int, error) {
			return engine.SampleDemand(overlaps, current.ID, w, day), nil
		}
		q, err = s.pricer.Price(current, w, day, wx, demand)
		if err != nil {
			return err
		}

		now := s.now()
		id := uuid.NewString()
		res = db.Reservation{
			ID:              id,
			Code:            reservationCode(id),
			LocationID:      current.ID,
			BookingDate:     day,
			StartTime:       w.Start,
			EndTime:         w.End,
			Status:          db.StatusBooked,
			Plate:           req.Plate,
			Amount:          q.FinalPrice,
			SurgeMultiplier: q.SurgeMultiplier,
			UserName:        req.UserName,
			UserEmail:       req.UserEmail,
			UserPhone:       req.UserPhone,
			Language:        req.Language,
			PaymentStatus:   db.PaymentNone,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if s.payments != nil && q.FinalPrice > 0 {
			res.PaymentStatus = db.PaymentPending
		}
		return tx.InsertReservation(ctx, &res)
	})

	var rejected *NotAdmittedError
	if errors.As(err, &rejected) {
		s.metrics.Admission("rejected")
		s.logger.Info("reservation_rejected", "location_id", loc.ID, "reason", rejected.Availability.Reason,
			"active", rejected.Availability.ActiveOverlapCount, "capacity", rejected.Availability.Capacity)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Admission("admitted")
	s.metrics.Transition(string(db.StatusBooked))
	s.metrics.SurgeApplied(q.SurgeMultiplier)
	s.logger.Info("reservation_booked", "reservation_id", res.ID, "location_id", loc.ID,
		"amount", res.Amount, "surge_multiplier", res.SurgeMultiplier)

	var checkoutURL string
	if res.PaymentStatus == db.PaymentPending {
		url, sessionID, err := s.payments.CreateCheckoutSession(ctx, amountCents(res.Amount),
			fmt.Sprintf("Parking %s %s", loc.Address, res.Code), res.UserEmail, res.ID)
		if err != nil {
			s.logger.Error("checkout_failed", "reservation_id", res.ID, "err", err)
			if _, failErr := s.MarkFailed(ctx, res.ID); failErr != nil {
				s.logger.Error("reservation_fail_after_checkout", "reservation_id", res.ID, "err", failErr)
			}
			return nil, fmt.Errorf("starting payment for reservation %s: %w", res.ID, err)
		}
		if err := s.store.UpdatePayment(ctx, res.ID, sessionID, db.PaymentPending); err != nil {
			return nil, err
		}
		res.StripeSessionID = sessionID
		checkoutURL = url
	}

	s.notify(res, *loc, NotifyBooked, checkoutURL)
	s.publish(ctx, events.ReservationBooked, res)

	return &entities.BookingResponse{
		Reservation: reservationResponse(res),
		CheckoutURL: checkoutURL,
		Quote:       *quoteResponse(loc.ID, q, wx != nil),
	}, nil
}

// Reschedule moves a BOOKED reservation to a new window at its location. The
// reservation never counts against itself and the amount is kept.
func (s *ReservationService) Reschedule(ctx context.Context, id string, req entities.RescheduleRequest) (*entities.ReservationResponse, error) {
	day, w, err := s.parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		res db.Reservation
		loc db.Location
	)
	err = s.store.WithinLocation(ctx, existing.LocationID, func(tx repository.LocationTx) error {
		cur, err := tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return fmt.Errorf("reservation %s is %s: %w", id, cur.Status, apperr.ErrInvalidState)
		}
		overlaps, err := tx.ActiveOverlaps(ctx, w, nil)
		if err != nil {
			return err
		}
		av, err := engine.CheckAvailability(tx.Location(), w, overlaps, id)
		if err != nil {
			return err
		}
		if !av.Admitted {
			return &NotAdmittedError{Availability: av}
		}
		if err := engine.Reschedule(cur, day, w, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, cur); err != nil {
			return err
		}
		res = *cur
		loc = *tx.Location()
		return nil
	})

	var rejected *NotAdmittedError
	if errors.As(err, &rejected) {
		s.metrics.Admission("rejected")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Admission("admitted")
	s.metrics.Transition(string(db.StatusBooked))
	s.logger.Info("reservation_rescheduled", "reservation_id", id, "start", res.StartTime, "end", res.EndTime)

	s.notify(res, loc, NotifyRescheduled, "")
	s.publish(ctx, events.ReservationRescheduled, res)

	resp := reservationResponse(res)
	return &resp, nil
}

// Cancel frees the reservation's capacity and resets its amount. A paid
// reservation is refunded in the same section that cancels it; if the refund
// fails nothing changes.
func (s *ReservationService) Cancel(ctx context.Context, id string) (*entities.ReservationResponse, error) {
	existing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		res      db.Reservation
		loc      db.Location
		refunded bool
	)
	err = s.store.WithinLocation(ctx, existing.LocationID, func(tx repository.LocationTx) error {
		cur, err := tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return fmt.Errorf("reservation %s is %s: %w", id, cur.Status, apperr.ErrInvalidState)
		}
		if err := engine.Cancel(cur, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, cur); err != nil {
			return err
		}
		// payment state is read under the lock: a checkout completing
		// concurrently is either refunded here or sees the cancellation
		if cur.PaymentStatus == db.PaymentPaid && cur.StripeSessionID != "" && s.payments != nil {
			if err := s.refund(ctx, cur.StripeSessionID); err != nil {
				return fmt.Errorf("refunding reservation %s: %w", id, err)
			}
			refunded = true
			if err := tx.UpdatePayment(ctx, id, cur.StripeSessionID, db.PaymentRefunded); err != nil {
				s.logger.Error("refund_status_update_failed", "reservation_id", id, "err", err)
				return err
			}
			cur.PaymentStatus = db.PaymentRefunded
		}
		res = *cur
		loc = *tx.Location()
		return nil
	})
	if err != nil {
		if refunded {
			s.logger.Error("refunded_but_not_cancelled", "reservation_id", id, "err", err)
		}
		return nil, err
	}

	s.metrics.Transition(string(db.StatusCancelled))
	s.logger.Info("reservation_cancelled", "reservation_id", id, "refunded", refunded)

	s.notify(res, loc, NotifyCancelled, "")
	s.publish(ctx, events.ReservationCancelled, res)

	resp := reservationResponse(res)
	return &resp, nil
}

// refund runs inside a location section, so the gateway call is bounded.
func (s *ReservationService) refund(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, refundTimeout)
	defer cancel()
	return s.payments.RefundSession(ctx, sessionID)
}

// MarkFailed records a payment failure: BOOKED -> FAILED, capacity freed.
func (s *ReservationService) MarkFailed(ctx context.Context, id string) (*entities.ReservationResponse, error) {
	existing, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	var res db.Reservation
	err = s.store.WithinLocation(ctx, existing.LocationID, func(tx repository.LocationTx) error {
		cur, err := tx.Reservation(ctx, id)
		if err != nil {
			return err
		}
		if err := engine.Fail(cur, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, cur); err != nil {
			return err
		}
		res = *cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(db.StatusFailed))
	s.logger.Info("reservation_failed", "reservation_id", id)
	s.publish(ctx, events.ReservationFailed, res)

	resp := reservationResponse(res)
	return &resp, nil
}

// lookupPayment finds the reservation behind a checkout session, falling back
// to the reservation id Stripe echoes back as client reference.
func (s *ReservationService) lookupPayment(ctx context.Context, sessionID, reservationID string) (*db.Reservation, error) {
	res, err := s.store.GetReservationBySessionID(ctx, sessionID)
	if errors.Is(err, apperr.ErrNotFound) && reservationID != "" {
		return s.store.GetReservation(ctx, reservationID)
	}
	return res, err
}

// MarkPaid records a completed checkout. Payment for a reservation that was
// cancelled or failed in the meantime is refunded.
func (s *ReservationService) MarkPaid(ctx context.Context, sessionID, reservationID string) error {
	found, err := s.lookupPayment(ctx, sessionID, reservationID)
	if err != nil {
		return err
	}

	var (
		status   db.ReservationStatus
		refunded bool
	)
	err = s.store.WithinLocation(ctx, found.LocationID, func(tx repository.LocationTx) error {
		cur, err := tx.Reservation(ctx, found.ID)
		if err != nil {
			return err
		}
		status = cur.Status
		if cur.Status.Terminal() && s.payments != nil {
			if err := s.refund(ctx, sessionID); err != nil {
				return err
			}
			refunded = true
			return tx.UpdatePayment(ctx, cur.ID, sessionID, db.PaymentRefunded)
		}
		return tx.UpdatePayment(ctx, cur.ID, sessionID, db.PaymentPaid)
	})
	if err != nil {
		if refunded {
			s.logger.Error("refund_status_update_failed", "reservation_id", found.ID, "err", err)
		}
		return err
	}

	if refunded {
		s.logger.Warn("payment_for_closed_reservation", "reservation_id", found.ID, "status", status)
		return nil
	}
	s.logger.Info("reservation_paid", "reservation_id", found.ID)
	return nil
}

// MarkPaymentFailed fails a reservation whose checkout expired or was
// declined. Already closed reservations are left alone.
func (s *ReservationService) MarkPaymentFailed(ctx context.Context, sessionID, reservationID string) error {
	res, err := s.lookupPayment(ctx, sessionID, reservationID)
	if err != nil {
		return err
	}
	if res.Status.Terminal() {
		return nil
	}
	_, err = s.MarkFailed(ctx, res.ID)
	if errors.Is(err, apperr.ErrInvalidState) {
		// closed between the lookup and the lock
		return nil
	}
	return err
}

func (s *ReservationService) MarkRefunded(ctx context.Context, sessionID string) error {
	res, err := s.store.GetReservationBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.store.UpdatePayment(ctx, res.ID, sessionID, db.PaymentRefunded)
}

func (s *ReservationService) Get(ctx context.Context, id string) (*entities.ReservationResponse, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := reservationResponse(*res)
	return &resp, nil
}

// GetBySession serves the checkout return pages.
func (s *ReservationService) GetBySession(ctx context.Context, sessionID string) (*entities.ReservationResponse, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", apperr.ErrInvalidInput)
	}
	res, err := s.store.GetReservationBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := reservationResponse(*res)
	return &resp, nil
}

// MarkChargeRefunded handles a refund issued outside the service, for
// example from the Stripe dashboard.
func (s *ReservationService) MarkChargeRefunded(ctx context.Context, paymentIntentID string) error {
	if s.payments == nil {
		return fmt.Errorf("payments are not configured: %w", apperr.ErrUpstreamUnavailable)
	}
	sessionID, err := s.payments.SessionForPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	return s.MarkRefunded(ctx, sessionID)
}

// List filters by booking date, location and status. An empty status means
// BOOKED; "ALL" disables the status filter.
func (s *ReservationService) List(ctx context.Context, date, locationID, status string) (*entities.ReservationsList, error) {
	var f repository.ReservationFilter
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, s.tz)
		if err != nil {
			return nil, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, apperr.ErrInvalidInput)
		}
		f.BookingDate = &day
	}
	f.LocationID = locationID

	switch st := db.ReservationStatus(strings.ToUpper(status)); st {
	case "":
		f.Status = db.StatusBooked
	case statusFilterAll:
	case db.StatusBooked, db.StatusCancelled, db.StatusFailed:
		f.Status = st
	default:
		return nil, fmt.Errorf("unknown reservation status %q: %w", status, apperr.ErrInvalidInput)
	}

	reservations, err := s.store.ListReservations(ctx, f)
	if err != nil {
		return nil, err
	}
	list := &entities.ReservationsList{
		Total:        len(reservations),
		Reservations: make([]entities.ReservationResponse, 0, len(reservations)),
	}
	for _, r := range reservations {
		list.Reservations = append(list.Reservations, reservationResponse(r))
	}
	return list, nil
}

// FindNearby lists operator-available locations within the radius, nearest
// first, with how many spots are booked during the window.
func (s *ReservationService) FindNearby(ctx context.Context, req entities.NearbyRequest) ([]entities.NearbyLocation, error) {
	if !utils.ValidCoordinates(req.Lat, req.Lng) {
		return nil, fmt.Errorf("coordinates %v,%v out of range: %w", req.Lat, req.Lng, apperr.ErrInvalidInput)
	}
	if req.RadiusMeters < 0 {
		return nil, fmt.Errorf("radius must not be negative: %w", apperr.ErrInvalidInput)
	}
	if req.RadiusMeters == 0 {
		req.RadiusMeters = defaultRadiusMeters
	}
	_, w, err := s.parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.BookedCounts(ctx, w)
	if err != nil {
		return nil, err
	}

	nearby := make([]entities.NearbyLocation, 0)
	for _, loc := range locations {
		if !loc.Available() {
			continue
		}
		distance := utils.DistanceMeters(req.Lat, req.Lng, loc.Lat, loc.Lng)
		if distance > req.RadiusMeters {
			continue
		}
		booked := counts[loc.ID]
		status := db.LocationAvailable
		if booked >= loc.NumberOfSpots {
			status = db.LocationFull
		}
		nearby = append(nearby, entities.NearbyLocation{
			ID:             loc.ID,
			Address:        loc.Address,
			Lat:            loc.Lat,
			Lng:            loc.Lng,
			NumberOfSpots:  loc.NumberOfSpots,
			BookedSpots:    booked,
			HourlyRate:     loc.HourlyRate,
			DynamicPricing: loc.DynamicPricing,
			Category:       string(loc.Category),
			Status:         string(status),
			DistanceMeters: distance,
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	return nearby, nil
}

func (s *ReservationService) notify(res db.Reservation, loc db.Location, kind NotificationKind, checkoutURL string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyReservation(res, loc, kind, checkoutURL)
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res db.Reservation) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, res, s.now())); err != nil {
		s.logger.Warn("event_publish_failed", "type", eventType, "reservation_id", res.ID, "err", err)
	}
}

// reservationCode is the short confirmation code shown to guests.
func reservationCode(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

func amountCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

func availabilityResponse(locationID string, av engine.Availability) *entities.AvailabilityResponse {
	return &entities.AvailabilityResponse{
		LocationID:         locationID,
		Available:          av.Admitted,
		ActiveOverlapCount: av.ActiveOverlapCount,
		Capacity:           av.Capacity,
		Reason:             av.Reason,
	}
}

func quoteResponse(locationID string, q engine.Quote, weatherApplied bool) *entities.QuoteResponse {
	terms := make([]entities.SurgeTermResponse, 0, len(q.Terms))
	for _, t := range q.Terms {
		terms = append(terms, entities.SurgeTermResponse{Name: t.Name, Amount: t.Delta})
	}
	return &entities.QuoteResponse{
		LocationID:      locationID,
		BasePrice:       q.BasePrice,
		FinalPrice:      q.FinalPrice,
		SurgeAmount:     q.SurgeAmount,
		SurgeMultiplier: q.SurgeMultiplier,
		DemandCount:     q.DemandCount,
		Terms:           terms,
		WeatherApplied:  weatherApplied,
	}
}

func reservationResponse(r db.Reservation) entities.ReservationResponse {
	return entities.ReservationResponse{
		ID:              r.ID,
		Code:            r.Code,
		LocationID:      r.LocationID,
		BookingDate:     r.BookingDate.Format("2006-01-02"),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Status:          string(r.Status),
		Plate:           r.Plate,
		Amount:          r.Amount,
		SurgeMultiplier: r.SurgeMultiplier,
		UserName:        r.UserName,
		UserEmail:       r.UserEmail,
		UserPhone:       r.UserPhone,
		PaymentStatus:   r.PaymentStatus,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
