package entities

// WindowRequest is the slot a guest asks about: a calendar day plus
// HH:MM clock times, read in the configured timezone.
type WindowRequest struct {
	LocationID string `json:"location_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type AvailabilityResponse struct {
	LocationID         string `json:"location_id"`
	Available          bool   `json:"available"`
	ActiveOverlapCount int    `json:"active_overlap_count"`
	Capacity           int    `json:"capacity"`
	Reason             string `json:"reason,omitempty"`
}

type NearbyRequest struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
	Date         string
	StartTime    string
	EndTime      string
}

type NearbyLocation struct {
	ID             string  `json:"id"`
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	NumberOfSpots  int     `json:"number_of_spots"`
	BookedSpots    int     `json:"booked_spots"`
	HourlyRate     float64 `json:"hourly_rate"`
	DynamicPricing bool    `json:"dynamic_pricing"`
	Category       string  `json:"category,omitempty"`
	Status         string  `json:"status"`
	DistanceMeters float64 `json:"distance_meters"`
}
