package entities

import "time"

type ReservationResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	LocationID      string    `json:"location_id"`
	BookingDate     string    `json:"booking_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	Plate           string    `json:"plate"`
	Amount          float64   `json:"amount"`
	SurgeMultiplier float64   `json:"surge_multiplier"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	UserPhone       string    `json:"user_phone"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookingResponse is returned when a reservation is created. CheckoutURL is
// empty for free bookings.
type BookingResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	CheckoutURL string              `json:"checkout_url,omitempty"`
	Quote       QuoteResponse       `json:"quote"`
}

type ReservationsList struct {
	Total        int                   `json:"total"`
	Reservations []ReservationResponse `json:"reservations"`
}
