package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"surgepark/internal/db"
	apperr "surgepark/internal/errors"
)

type WeatherCondition string

const (
	WeatherClear  WeatherCondition = "clear"
	WeatherCloudy WeatherCondition = "cloudy"
	WeatherRain   WeatherCondition = "rain"
	WeatherSnow   WeatherCondition = "snow"
	WeatherHot    WeatherCondition = "hot"
	WeatherCold   WeatherCondition = "cold"
)

// Weather is a point-in-time reading resolved by the caller.
type Weather struct {
	Condition    WeatherCondition
	TemperatureC *float64
}

// PricingConfig holds the surge rule constants. The env tags are read by
// internal/config.
type PricingConfig struct {
	WorkStartHour   int     `env:"PRICING_WORK_START_HOUR" env-default:"9"`
	WorkEndHour     int     `env:"PRICING_WORK_END_HOUR" env-default:"18"`
	BaseSurge       float64 `env:"PRICING_BASE_SURGE" env-default:"0.20"`
	PrecipSurge     float64 `env:"PRICING_PRECIP_SURGE" env-default:"0.15"`
	HeatSurge       float64 `env:"PRICING_HEAT_SURGE" env-default:"0.10"`
	ColdSurge       float64 `env:"PRICING_COLD_SURGE" env-default:"0.10"`
	HotAboveC       float64 `env:"PRICING_HOT_ABOVE_C" env-default:"35"`
	ColdBelowC      float64 `env:"PRICING_COLD_BELOW_C" env-default:"5"`
	DemandThreshold int     `env:"PRICING_DEMAND_THRESHOLD" env-default:"5"`
	DemandStep      float64 `env:"PRICING_DEMAND_STEP" env-default:"0.10"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		WorkStartHour:   9,
		WorkEndHour:     18,
		BaseSurge:       0.20,
		PrecipSurge:     0.15,
		HeatSurge:       0.10,
		ColdSurge:       0.10,
		HotAboveC:       35,
		ColdBelowC:      5,
		DemandThreshold: 5,
		DemandStep:      0.10,
	}
}

func (c PricingConfig) Validate() error {
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkStartHour >= c.WorkEndHour {
		return fmt.Errorf("working hours %d-%d: %w", c.WorkStartHour, c.WorkEndHour, apperr.ErrInvalidInput)
	}
	if c.DemandThreshold <= 0 {
		return fmt.Errorf("demand threshold must be positive, got %d: %w", c.DemandThreshold, apperr.ErrInvalidInput)
	}
	for _, v := range []float64{c.BaseSurge, c.PrecipSurge, c.HeatSurge, c.ColdSurge, c.DemandStep} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("surge increments must be finite and non-negative: %w", apperr.ErrInvalidInput)
		}
	}
	return nil
}

const (
	TermPrecipitation = "precipitation"
	TermHeat          = "heat"
	TermCold          = "cold"
	TermWorkHours     = "work_hours_category"
	TermAfterHours    = "after_hours_category"
	TermWeekend       = "weekend_category"
	TermDemand        = "demand"
)

// SurgeTerm is one additive contribution to the multiplier.
type SurgeTerm struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

type Quote struct {
	BasePrice       float64
	FinalPrice      float64
	SurgeAmount     float64
	SurgeMultiplier float64
	DemandCount     int
	Terms           []SurgeTerm
}

type Pricer struct {
	cfg PricingConfig
}

func NewPricer(cfg PricingConfig) *Pricer {
	return &Pricer{cfg: cfg}
}

func (p *Pricer) Config() PricingConfig {
	return p.cfg
}

// Price computes base × surge for loc over w on day. weather may be nil, in
// which case no weather term applies. demand is only invoked when dynamic
// pricing is enabled for the location.
func (p *Pricer) Price(loc *db.Location, w TimeWindow, day time.Time, weather *Weather, demand DemandSampler) (Quote, error) {
	if loc == nil {
		return Quote{}, fmt.Errorf("location: %w", apperr.ErrNotFound)
	}
	if err := w.Validate(); err != nil {
		return Quote{}, err
	}
	if loc.HourlyRate < 0 || math.IsNaN(loc.HourlyRate) || math.IsInf(loc.HourlyRate, 0) {
		return Quote{}, fmt.Errorf("location %s hourly rate %v: %w", loc.ID, loc.HourlyRate, apperr.ErrInvalidInput)
	}

	base := loc.HourlyRate * w.DurationHours()
	if !loc.DynamicPricing {
		final := round2(base)
		return Quote{
			BasePrice:       final,
			FinalPrice:      final,
			SurgeMultiplier: 1,
		}, nil
	}

	multiplier := 1.0
	var terms []SurgeTerm
	add := func(name string, delta float64) {
		multiplier += delta
		terms = append(terms, SurgeTerm{Name: name, Delta: delta})
	}

	if weather != nil {
		p.weatherTerms(weather, add)
	}
	if name, ok := p.calendarTerm(loc.Category, w, day); ok {
		add(name, p.cfg.BaseSurge)
	}

	count := 0
	if demand != nil {
		n, err := demand()
		if err != nil {
			return Quote{}, fmt.Errorf("sampling demand for location %s: %w", loc.ID, err)
		}
		count = n
	}
	if blocks := p.demandBlocks(count); blocks > 0 {
		add(TermDemand, float64(blocks)*p.cfg.DemandStep)
	}

	final := round2(base * multiplier)
	return Quote{
		BasePrice:       round2(base),
		FinalPrice:      final,
		SurgeAmount:     round2(final - base),
		SurgeMultiplier: multiplier,
		DemandCount:     count,
		Terms:           terms,
	}, nil
}

func (p *Pricer) weatherTerms(wx *Weather, add func(string, float64)) {
	switch wx.Condition {
	case WeatherRain, WeatherSnow:
		add(TermPrecipitation, p.cfg.PrecipSurge)
	case WeatherHot:
		if wx.TemperatureC != nil && *wx.TemperatureC > p.cfg.HotAboveC {
			add(TermHeat, p.cfg.HeatSurge)
		}
	case WeatherCold:
		if wx.TemperatureC != nil && *wx.TemperatureC < p.cfg.ColdBelowC {
			add(TermCold, p.cfg.ColdSurge)
		}
	}
}

// calendarTerm picks at most one category surge for the window.
func (p *Pricer) calendarTerm(cat db.Category, w TimeWindow, day time.Time) (string, bool) {
	if isWeekend(day) {
		if leisure(cat) {
			return TermWeekend, true
		}
		return "", false
	}

	inHours := p.withinWorkingHours(w.Start) && p.withinWorkingHours(w.End)
	switch {
	case inHours && workplace(cat):
		return TermWorkHours, true
	case !inHours && leisure(cat):
		return TermAfterHours, true
	}
	return "", false
}

// withinWorkingHours tests t against the working band of its own calendar
// day, both ends inclusive.
func (p *Pricer) withinWorkingHours(t time.Time) bool {
	y, m, d := t.Date()
	from := time.Date(y, m, d, p.cfg.WorkStartHour, 0, 0, 0, t.Location())
	to := time.Date(y, m, d, p.cfg.WorkEndHour, 0, 0, 0, t.Location())
	return !t.Before(from) && !t.After(to)
}

// demandBlocks is ceil((count-T)/T) for counts above the threshold T.
func (p *Pricer) demandBlocks(count int) int {
	t := p.cfg.DemandThreshold
	if t <= 0 || count <= t {
		return 0
	}
	return (count - t + t - 1) / t
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func workplace(c db.Category) bool {
	return c == db.CategoryOffice || c == db.CategoryUniversity || c == db.CategorySchool
}

func leisure(c db.Category) bool {
	return c == db.CategoryMall || c == db.CategoryCinema || c == db.CategoryMarket
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
