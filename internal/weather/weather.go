// Package weather resolves the current conditions at a location from
// WeatherAPI.com for the pricing engine.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"surgepark/internal/breaker"
	"surgepark/internal/engine"
	apperr "surgepark/internal/errors"
)

type Provider interface {
	Current(ctx context.Context, lat, lng float64) (*engine.Weather, error)
}

type Config struct {
	APIKey  string         `env:"WEATHERAPI_KEY"`
	BaseURL string         `env:"WEATHERAPI_URL" env-default:"https://api.weatherapi.com/v1"`
	Timeout time.Duration  `env:"WEATHER_TIMEOUT" env-default:"3s"`
	Breaker breaker.Config `env-prefix:"WEATHER_BREAKER_"`
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *breaker.Breaker
	logger  *slog.Logger
}

func NewClient(cfg Config, brk *breaker.Breaker, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: brk,
		logger:  logger,
	}
}

type currentResponse struct {
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Current fetches the conditions at lat,lng. Any failure is reported as
// ErrUpstreamUnavailable; callers price without a weather term in that case.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*engine.Weather, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("weather api key not configured: %w", apperr.ErrUpstreamUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body currentResponse
	fetch := func(ctx context.Context) error {
		return c.fetch(ctx, lat, lng, &body)
	}
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("weather at %.5f,%.5f: %v: %w", lat, lng, err, apperr.ErrUpstreamUnavailable)
	}

	temp := body.Current.TempC
	w := &engine.Weather{
		Condition:    Classify(body.Current.Condition.Text, temp),
		TemperatureC: &temp,
	}
	c.logger.Debug("weather_resolved", "lat", lat, "lng", lng, "condition", w.Condition, "temp_c", temp)
	return w, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64, out *currentResponse) error {
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/current.json?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Classify maps a free-text condition and temperature onto the engine's
// condition set. Precipitation wins over cloud, cloud over temperature.
func Classify(description string, tempC float64) engine.WeatherCondition {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "rain"):
		return engine.WeatherRain
	case strings.Contains(d, "snow"):
		return engine.WeatherSnow
	case strings.Contains(d, "cloud"):
		return engine.WeatherCloudy
	case tempC > 35:
		return engine.WeatherHot
	case tempC < 5:
		return engine.WeatherCold
	default:
		return engine.WeatherClear
	}
}
