package db

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryNone       Category = ""
	CategoryOffice     Category = "office"
	CategoryMall       Category = "mall"
	CategoryCinema     Category = "cinema"
	CategoryMarket     Category = "market"
	CategoryUniversity Category = "university"
	CategorySchool     Category = "school"
)

// ParseCategory accepts one of the known land-use categories, or an empty
// string for "unset".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryNone, CategoryOffice, CategoryMall, CategoryCinema,
		CategoryMarket, CategoryUniversity, CategorySchool:
		return c, nil
	}
	return CategoryNone, fmt.Errorf("unknown location category %q", s)
}

type LocationStatus string

const (
	LocationAvailable    LocationStatus = "AVAILABLE"
	LocationNotAvailable LocationStatus = "NOTAVAILABLE"
	// LocationFull is never stored; nearby search reports it for locations
	// whose spots are all taken for the requested window.
	LocationFull LocationStatus = "FULL"
)

type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "BOOKED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusFailed    ReservationStatus = "FAILED"
)

// Terminal reports whether no further transition may leave this status.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusFailed
}

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
	PaymentNone     = "none"
)

type Location struct {
	ID             string
	Address        string
	Lat            float64
	Lng            float64
	NumberOfSpots  int
	HourlyRate     float64
	Status         LocationStatus
	DynamicPricing bool
	Category       Category
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l *Location) Available() bool {
	return l.Status != LocationNotAvailable
}

type Reservation struct {
	ID              string
	Code            string
	LocationID      string
	BookingDate     time.Time
	StartTime       time.Time
	EndTime         time.Time
	Status          ReservationStatus
	Plate           string
	Amount          float64
	SurgeMultiplier float64
	UserName        string
	UserEmail       string
	UserPhone       string
	Language        string
	StripeSessionID string
	PaymentStatus   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}
