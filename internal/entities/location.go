package entities

import "time"

type LocationRequest struct {
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	NumberOfSpots  int     `json:"number_of_spots"`
	HourlyRate     float64 `json:"hourly_rate"`
	DynamicPricing *bool   `json:"dynamic_pricing"`
}

type DynamicPricingRequest struct {
	Enabled bool `json:"enabled"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type LocationResponse struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	NumberOfSpots  int       `json:"number_of_spots"`
	HourlyRate     float64   `json:"hourly_rate"`
	Status         string    `json:"status"`
	DynamicPricing bool      `json:"dynamic_pricing"`
	Category       string    `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
