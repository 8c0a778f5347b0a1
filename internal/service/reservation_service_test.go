package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"surgepark/internal/db"
	"surgepark/internal/engine"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/events"
	"surgepark/internal/repository"
)

// 2025-07-15 is a Tuesday.
const bookingDate = "2025-07-15"

var clock = time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)

type reservationServiceSuite struct {
	suite.Suite

	ctx       context.Context
	store     *repository.MemoryStore
	weather   *fakeWeather
	payments  *fakePayments
	notifier  *recordingNotifier
	publisher *recordingPublisher
	svc       *ReservationService
}

func TestReservationServiceSuite(t *testing.T) {
	suite.Run(t, new(reservationServiceSuite))
}

func (s *reservationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.weather = &fakeWeather{}
	s.payments = &fakePayments{}
	s.notifier = &recordingNotifier{}
	s.publisher = &recordingPublisher{}
	s.svc = s.newService(s.payments)
}

func (s *reservationServiceSuite) newService(payments PaymentGateway) *ReservationService {
	return s.newServiceOn(s.store, payments)
}

func (s *reservationServiceSuite) newServiceOn(store repository.Store, payments PaymentGateway) *ReservationService {
	return NewReservationService(Dependencies{
		Store:    store,
		Pricer:   engine.NewPricer(engine.DefaultPricingConfig()),
		Weather:  s.weather,
		Payments: payments,
		Notifier: s.notifier,
		Events:   s.publisher,
		Timezone: time.UTC,
		Now:      func() time.Time { return clock },
	})
}

func (s *reservationServiceSuite) addLocation(id string, spots int, dynamic bool, cat db.Category) {
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID:             id,
		Address:        "Via Roma " + id,
		Lat:            45.4642,
		Lng:            9.19,
		NumberOfSpots:  spots,
		HourlyRate:     10,
		Status:         db.LocationAvailable,
		DynamicPricing: dynamic,
		Category:       cat,
	}))
}

func slot(locationID, start, end string) entities.WindowRequest {
	return entities.WindowRequest{LocationID: locationID, Date: bookingDate, StartTime: start, EndTime: end}
}

func guest(w entities.WindowRequest, plate string) entities.ReservationRequest {
	return entities.ReservationRequest{
		WindowRequest: w,
		Plate:         plate,
		UserName:      "Giulia",
		UserEmail:     "giulia@example.com",
		UserPhone:     "+393331234567",
		Language:      "it",
	}
}

func (s *reservationServiceSuite) book(locationID, start, end, plate string) *entities.BookingResponse {
	resp, err := s.svc.Book(s.ctx, guest(slot(locationID, start, end), plate))
	s.Require().NoError(err)
	return resp
}

func (s *reservationServiceSuite) TestBookStoresPricedReservation() {
	s.addLocation("loc-1", 2, false, db.CategoryNone)

	resp := s.book("loc-1", "10:00", "12:00", "ab 123 cd")

	r := resp.Reservation
	s.Equal(db.StatusBooked, db.ReservationStatus(r.Status))
	s.Equal("AB123CD", r.Plate)
	s.Equal(20.0, r.Amount)
	s.Equal(1.0, r.SurgeMultiplier)
	s.Equal(bookingDate, r.BookingDate)
	s.Len(r.Code, 8)
	s.Equal("https://checkout.example/cs_"+r.ID, resp.CheckoutURL)
	s.Equal([]int64{2000}, s.payments.checkouts)

	stored, err := s.store.GetReservation(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("cs_"+r.ID, stored.StripeSessionID)
	s.Equal(db.PaymentPending, stored.PaymentStatus)

	s.Equal([]NotificationKind{NotifyBooked}, s.notifier.kinds())
	s.Equal([]string{events.ReservationBooked}, s.publisher.types())
	s.Zero(s.weather.calls, "weather is not needed when dynamic pricing is off")
}

func (s *reservationServiceSuite) TestBookRejectsWhenFull() {
	s.addLocation("loc-1", 2, false, db.CategoryNone)
	s.book("loc-1", "10:00", "12:00", "AA111AA")
	s.book("loc-1", "11:00", "13:00", "BB222BB")

	_, err := s.svc.Book(s.ctx, guest(slot("loc-1", "11:30", "12:30"), "CC333CC"))
	var rejected *NotAdmittedError
	s.Require().ErrorAs(err, &rejected)
	s.Equal(engine.ReasonCapacityExceeded, rejected.Availability.Reason)
	s.Equal(2, rejected.Availability.ActiveOverlapCount)

	// touching windows do not overlap
	s.book("loc-1", "12:00", "14:00", "DD444DD")
}

func (s *reservationServiceSuite) TestBookUnavailableLocation() {
	s.addLocation("loc-1", 5, false, db.CategoryNone)
	s.Require().NoError(s.store.SetStatus(s.ctx, "loc-1", db.LocationNotAvailable))

	_, err := s.svc.Book(s.ctx, guest(slot("loc-1", "10:00", "12:00"), "AA111AA"))
	var rejected *NotAdmittedError
	s.Require().ErrorAs(err, &rejected)
	s.Equal(engine.ReasonLocationUnavailable, rejected.Availability.Reason)
}

func (s *reservationServiceSuite) TestBookValidatesInput() {
	s.addLocation("loc-1", 5, false, db.CategoryNone)

	cases := map[string]entities.ReservationRequest{
		"bad date":      guest(entities.WindowRequest{LocationID: "loc-1", Date: "15/07/2025", StartTime: "10:00", EndTime: "12:00"}, "AA111AA"),
		"inverted":      guest(slot("loc-1", "12:00", "10:00"), "AA111AA"),
		"empty window":  guest(slot("loc-1", "10:00", "10:00"), "AA111AA"),
		"missing plate": guest(slot("loc-1", "10:00", "12:00"), " "),
	}
	for name, req := range cases {
		s.Run(name, func() {
			_, err := s.svc.Book(s.ctx, req)
			s.ErrorIs(err, apperr.ErrInvalidInput)
		})
	}

	_, err := s.svc.Book(s.ctx, guest(slot("nope", "10:00", "12:00"), "AA111AA"))
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *reservationServiceSuite) TestBookDynamicPricingWithWeather() {
	s.addLocation("loc-1", 5, true, db.CategoryOffice)
	s.weather.wx = &engine.Weather{Condition: engine.WeatherRain}

	resp := s.book("loc-1", "10:00", "12:00", "AA111AA")
	s.Equal(27.0, resp.Reservation.Amount)
	s.InDelta(1.35, resp.Reservation.SurgeMultiplier, 1e-9)
	s.True(resp.Quote.WeatherApplied)
	s.Len(resp.Quote.Terms, 2)
	s.Equal(1, s.weather.calls)
}

func (s *reservationServiceSuite) TestWeatherOutageDegradesToNoTerm() {
	s.addLocation("loc-1", 5, true, db.CategoryOffice)
	s.weather.err = fmt.Errorf("weather: %w", apperr.ErrUpstreamUnavailable)

	resp := s.book("loc-1", "10:00", "12:00", "AA111AA")
	s.Equal(24.0, resp.Reservation.Amount)
	s.False(resp.Quote.WeatherApplied)
}

func (s *reservationServiceSuite) TestQuoteCountsSameDayDemand() {
	s.addLocation("loc-1", 20, true, db.CategoryNone)
	for i := 0; i < 6; i++ {
		s.book("loc-1", "09:00", "13:00", fmt.Sprintf("PL%03d", i))
	}

	q, err := s.svc.Quote(s.ctx, slot("loc-1", "10:00", "12:00"))
	s.Require().NoError(err)
	s.Equal(6, q.DemandCount)
	s.Equal(20.0, q.BasePrice)
	s.Equal(22.0, q.FinalPrice)
	s.Equal(2.0, q.SurgeAmount)
}

func (s *reservationServiceSuite) TestCheckAvailability() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	s.book("loc-1", "10:00", "12:00", "AA111AA")

	av, err := s.svc.CheckAvailability(s.ctx, slot("loc-1", "11:00", "13:00"))
	s.Require().NoError(err)
	s.False(av.Available)
	s.Equal(1, av.ActiveOverlapCount)
	s.Equal(engine.ReasonCapacityExceeded, av.Reason)

	av, err = s.svc.CheckAvailability(s.ctx, slot("loc-1", "12:00", "13:00"))
	s.Require().NoError(err)
	s.True(av.Available)
}

func (s *reservationServiceSuite) TestCheckoutFailureFailsReservation() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	s.payments.checkoutErr = errStripeDown

	_, err := s.svc.Book(s.ctx, guest(slot("loc-1", "10:00", "12:00"), "AA111AA"))
	s.ErrorIs(err, apperr.ErrUpstreamUnavailable)

	list, err := s.svc.List(s.ctx, bookingDate, "loc-1", "FAILED")
	s.Require().NoError(err)
	s.Require().Equal(1, list.Total)

	// the failed reservation no longer holds the only spot
	s.payments.checkoutErr = nil
	s.book("loc-1", "10:00", "12:00", "BB222BB")
}

func (s *reservationServiceSuite) TestFreeBookingSkipsCheckout() {
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID: "free", NumberOfSpots: 1, HourlyRate: 0, Status: db.LocationAvailable,
	}))

	resp := s.book("free", "10:00", "12:00", "AA111AA")
	s.Empty(resp.CheckoutURL)
	s.Equal(db.PaymentNone, resp.Reservation.PaymentStatus)
	s.Empty(s.payments.checkouts)
}

func (s *reservationServiceSuite) TestRescheduleExcludesSelf() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	first := s.book("loc-1", "10:00", "12:00", "AA111AA")
	second := s.book("loc-1", "12:00", "14:00", "BB222BB")

	_, err := s.svc.Reschedule(s.ctx, second.Reservation.ID,
		entities.RescheduleRequest{Date: bookingDate, StartTime: "11:00", EndTime: "13:00"})
	var rejected *NotAdmittedError
	s.Require().ErrorAs(err, &rejected)

	unchanged, err := s.svc.Get(s.ctx, second.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(second.Reservation.StartTime, unchanged.StartTime)

	moved, err := s.svc.Reschedule(s.ctx, first.Reservation.ID,
		entities.RescheduleRequest{Date: bookingDate, StartTime: "09:00", EndTime: "11:30"})
	s.Require().NoError(err)
	s.Equal(9, moved.StartTime.Hour())
	s.Equal(first.Reservation.Amount, moved.Amount)
	s.Contains(s.publisher.types(), events.ReservationRescheduled)
}

func (s *reservationServiceSuite) TestRescheduleToAnotherDay() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")

	moved, err := s.svc.Reschedule(s.ctx, r.Reservation.ID,
		entities.RescheduleRequest{Date: "2025-07-16", StartTime: "10:00", EndTime: "12:00"})
	s.Require().NoError(err)
	s.Equal("2025-07-16", moved.BookingDate)

	// the old slot is free again
	s.book("loc-1", "10:00", "12:00", "BB222BB")
}

func (s *reservationServiceSuite) TestCancelFreesCapacityAndResetsAmount() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")

	cancelled, err := s.svc.Cancel(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(string(db.StatusCancelled), cancelled.Status)
	s.Zero(cancelled.Amount)
	s.Empty(s.payments.refunded, "pending payments are not refunded")

	s.book("loc-1", "10:00", "12:00", "BB222BB")

	_, err = s.svc.Cancel(s.ctx, r.Reservation.ID)
	s.ErrorIs(err, apperr.ErrInvalidState)
	_, err = s.svc.Reschedule(s.ctx, r.Reservation.ID,
		entities.RescheduleRequest{Date: bookingDate, StartTime: "14:00", EndTime: "15:00"})
	s.ErrorIs(err, apperr.ErrInvalidState)
	_, err = s.svc.MarkFailed(s.ctx, r.Reservation.ID)
	s.ErrorIs(err, apperr.ErrInvalidState)

	s.Equal([]NotificationKind{NotifyBooked, NotifyCancelled, NotifyBooked}, s.notifier.kinds())
}

func (s *reservationServiceSuite) TestCancelPaidReservationRefunds() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")
	sessionID := "cs_" + r.Reservation.ID
	s.Require().NoError(s.svc.MarkPaid(s.ctx, sessionID, ""))

	cancelled, err := s.svc.Cancel(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.PaymentRefunded, cancelled.PaymentStatus)
	s.Equal([]string{sessionID}, s.payments.refunded)
}

func (s *reservationServiceSuite) TestCancelKeepsReservationWhenRefundFails() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")
	s.Require().NoError(s.svc.MarkPaid(s.ctx, "cs_"+r.Reservation.ID, ""))
	s.payments.refundErr = errStripeDown

	_, err := s.svc.Cancel(s.ctx, r.Reservation.ID)
	s.ErrorIs(err, apperr.ErrUpstreamUnavailable)

	got, err := s.svc.Get(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(string(db.StatusBooked), got.Status)
	s.Equal(db.PaymentPaid, got.PaymentStatus)
}

// interleavingStore runs a hook once, right after the first unlocked read of
// a reservation, so another operation can commit in between.
type interleavingStore struct {
	*repository.MemoryStore
	afterGet     func()
	afterSession func()
}

func (st *interleavingStore) GetReservation(ctx context.Context, id string) (*db.Reservation, error) {
	res, err := st.MemoryStore.GetReservation(ctx, id)
	if hook := st.afterGet; hook != nil {
		st.afterGet = nil
		hook()
	}
	return res, err
}

func (st *interleavingStore) GetReservationBySessionID(ctx context.Context, sessionID string) (*db.Reservation, error) {
	res, err := st.MemoryStore.GetReservationBySessionID(ctx, sessionID)
	if hook := st.afterSession; hook != nil {
		st.afterSession = nil
		hook()
	}
	return res, err
}

func (s *reservationServiceSuite) TestCancelRefundsPaymentCompletedAfterItsRead() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")
	sessionID := "cs_" + r.Reservation.ID

	store := &interleavingStore{MemoryStore: s.store}
	svc := s.newServiceOn(store, s.payments)
	store.afterGet = func() {
		s.Require().NoError(svc.MarkPaid(s.ctx, sessionID, ""))
	}

	cancelled, err := svc.Cancel(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(string(db.StatusCancelled), cancelled.Status)
	s.Equal(db.PaymentRefunded, cancelled.PaymentStatus)
	s.Equal([]string{sessionID}, s.payments.refunded)

	got, err := s.store.GetReservation(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.PaymentRefunded, got.PaymentStatus)
}

func (s *reservationServiceSuite) TestPaymentRacingCancelIsRefunded() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")
	sessionID := "cs_" + r.Reservation.ID

	store := &interleavingStore{MemoryStore: s.store}
	svc := s.newServiceOn(store, s.payments)
	store.afterSession = func() {
		_, err := svc.Cancel(s.ctx, r.Reservation.ID)
		s.Require().NoError(err)
	}

	s.Require().NoError(svc.MarkPaid(s.ctx, sessionID, ""))
	s.Equal([]string{sessionID}, s.payments.refunded)

	got, err := s.store.GetReservation(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.StatusCancelled, got.Status)
	s.Equal(db.PaymentRefunded, got.PaymentStatus)
	s.Equal(0.0, got.Amount)
}

func (s *reservationServiceSuite) TestExpiryRacingCancelIsNoop() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")

	store := &interleavingStore{MemoryStore: s.store}
	svc := s.newServiceOn(store, s.payments)
	store.afterSession = func() {
		_, err := svc.Cancel(s.ctx, r.Reservation.ID)
		s.Require().NoError(err)
	}

	s.Require().NoError(svc.MarkPaymentFailed(s.ctx, "cs_"+r.Reservation.ID, ""))
	got, err := s.store.GetReservation(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.StatusCancelled, got.Status)
}

func (s *reservationServiceSuite) TestPaymentWebhooks() {
	s.addLocation("loc-1", 3, false, db.CategoryNone)
	paid := s.book("loc-1", "10:00", "12:00", "AA111AA")
	expired := s.book("loc-1", "10:00", "12:00", "BB222BB")

	s.Require().NoError(s.svc.MarkPaid(s.ctx, "cs_"+paid.Reservation.ID, paid.Reservation.ID))
	s.Require().NoError(s.svc.MarkPaymentFailed(s.ctx, "cs_"+expired.Reservation.ID, ""))
	// a repeated expiry is a no-op
	s.Require().NoError(s.svc.MarkPaymentFailed(s.ctx, "cs_"+expired.Reservation.ID, ""))

	got, err := s.svc.Get(s.ctx, paid.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.PaymentPaid, got.PaymentStatus)

	got, err = s.svc.Get(s.ctx, expired.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(string(db.StatusFailed), got.Status)

	s.Require().NoError(s.svc.MarkRefunded(s.ctx, "cs_"+paid.Reservation.ID))
	got, err = s.svc.Get(s.ctx, paid.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.PaymentRefunded, got.PaymentStatus)

	s.ErrorIs(s.svc.MarkPaid(s.ctx, "cs_unknown", ""), apperr.ErrNotFound)
}

func (s *reservationServiceSuite) TestLatePaymentForCancelledReservationIsRefunded() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	r := s.book("loc-1", "10:00", "12:00", "AA111AA")
	_, err := s.svc.Cancel(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.MarkPaid(s.ctx, "cs_"+r.Reservation.ID, ""))
	s.Equal([]string{"cs_" + r.Reservation.ID}, s.payments.refunded)

	got, err := s.svc.Get(s.ctx, r.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(db.PaymentRefunded, got.PaymentStatus)
}

func (s *reservationServiceSuite) TestListFilters() {
	s.addLocation("loc-1", 5, false, db.CategoryNone)
	s.addLocation("loc-2", 5, false, db.CategoryNone)
	a := s.book("loc-1", "10:00", "12:00", "AA111AA")
	s.book("loc-1", "13:00", "14:00", "BB222BB")
	s.book("loc-2", "10:00", "12:00", "CC333CC")
	_, err := s.svc.Cancel(s.ctx, a.Reservation.ID)
	s.Require().NoError(err)

	booked, err := s.svc.List(s.ctx, bookingDate, "loc-1", "")
	s.Require().NoError(err)
	s.Equal(1, booked.Total)

	all, err := s.svc.List(s.ctx, bookingDate, "loc-1", "all")
	s.Require().NoError(err)
	s.Equal(2, all.Total)

	everywhere, err := s.svc.List(s.ctx, "", "", "")
	s.Require().NoError(err)
	s.Equal(2, everywhere.Total)

	other, err := s.svc.List(s.ctx, "2025-07-16", "", "ALL")
	s.Require().NoError(err)
	s.Zero(other.Total)

	_, err = s.svc.List(s.ctx, "", "", "EXPIRED")
	s.ErrorIs(err, apperr.ErrInvalidInput)
}

func (s *reservationServiceSuite) TestFindNearby() {
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID: "near", Address: "Duomo", Lat: 45.4642, Lng: 9.1900, NumberOfSpots: 1, HourlyRate: 10, Status: db.LocationAvailable,
	}))
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID: "nearer", Address: "Galleria", Lat: 45.4655, Lng: 9.1900, NumberOfSpots: 4, HourlyRate: 10, Status: db.LocationAvailable,
	}))
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID: "closed", Address: "Brera", Lat: 45.4660, Lng: 9.1900, NumberOfSpots: 4, HourlyRate: 10, Status: db.LocationNotAvailable,
	}))
	s.Require().NoError(s.store.CreateLocation(s.ctx, &db.Location{
		ID: "far", Address: "Bergamo", Lat: 45.6983, Lng: 9.6773, NumberOfSpots: 4, HourlyRate: 10, Status: db.LocationAvailable,
	}))
	s.book("near", "10:00", "12:00", "AA111AA")

	found, err := s.svc.FindNearby(s.ctx, entities.NearbyRequest{
		Lat: 45.4660, Lng: 9.1900, RadiusMeters: 1000, Date: bookingDate, StartTime: "11:00", EndTime: "13:00",
	})
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal("nearer", found[0].ID)
	s.Equal(string(db.LocationAvailable), found[0].Status)
	s.Equal("near", found[1].ID)
	s.Equal(string(db.LocationFull), found[1].Status)
	s.Equal(1, found[1].BookedSpots)

	_, err = s.svc.FindNearby(s.ctx, entities.NearbyRequest{Lat: 91, Date: bookingDate, StartTime: "11:00", EndTime: "13:00"})
	s.ErrorIs(err, apperr.ErrInvalidInput)
}

func (s *reservationServiceSuite) TestEventPublishFailureDoesNotFailBooking() {
	s.addLocation("loc-1", 1, false, db.CategoryNone)
	s.publisher.err = fmt.Errorf("broker down")

	s.book("loc-1", "10:00", "12:00", "AA111AA")
}

func (s *reservationServiceSuite) TestConcurrentBookingsRespectCapacity() {
	s.addLocation("loc-1", 3, false, db.CategoryNone)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.svc.Book(s.ctx, guest(slot("loc-1", "10:00", "12:00"), fmt.Sprintf("PL%03d", i)))
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	s.Equal(3, admitted)
}
