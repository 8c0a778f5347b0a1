package entities

type SurgeTermResponse struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type QuoteResponse struct {
	LocationID      string              `json:"location_id"`
	BasePrice       float64             `json:"base_price"`
	FinalPrice      float64             `json:"final_price"`
	SurgeAmount     float64             `json:"surge_amount"`
	SurgeMultiplier float64             `json:"surge_multiplier"`
	DemandCount     int                 `json:"demand_count"`
	Terms           []SurgeTermResponse `json:"terms"`
	WeatherApplied  bool                `json:"weather_applied"`
}
