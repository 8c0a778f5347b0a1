// Package places classifies the surroundings of a new parking location using
// the Google Places nearby search.
package places

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
	"surgepark/internal/db"
	apperr "surgepark/internal/errors"
)

type Classifier interface {
	// Classify returns the dominant nearby category, or CategoryNone when
	// nothing relevant is around.
	Classify(ctx context.Context, lat, lng float64) (db.Category, error)
}

type Config struct {
	APIKey       string         `env:"GOOGLE_PLACES_API_KEY"`
	BaseURL      string         `env:"GOOGLE_PLACES_URL" env-default:"https://maps.googleapis.com/maps/api/place"`
	RadiusMeters int            `env:"GOOGLE_PLACES_RADIUS" env-default:"1000"`
	Timeout      time.Duration  `env:"GOOGLE_PLACES_TIMEOUT" env-default:"5s"`
	Breaker      breaker.Config `env-prefix:"PLACES_BREAKER_"`
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
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, breaker: brk, logger: logger}
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name  string   `json:"name"`
		Types []string `json:"types"`
	} `json:"results"`
}

func (c *Client) Classify(ctx context.Context, lat, lng float64) (db.Category, error) {
	if c.cfg.APIKey == "" {
		return db.CategoryNone, fmt.Errorf("places api key not configured: %w", apperr.ErrUpstreamUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body nearbyResponse
	fetch := func(ctx context.Context) error { return c.fetch(ctx, lat, lng, &body) }
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return db.CategoryNone, fmt.Errorf("nearby places at %.5f,%.5f: %v: %w", lat, lng, err, apperr.ErrUpstreamUnavailable)
	}

	for _, place := range body.Results {
		if cat := CategoryForTypes(place.Types); cat != db.CategoryNone {
			c.logger.Info("location_classified", "lat", lat, "lng", lng, "category", cat, "place", place.Name)
			return cat, nil
		}
	}
	return db.CategoryNone, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64, out *nearbyResponse) error {
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(c.cfg.RadiusMeters))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/nearbysearch/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
	switch out.Status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	default:
		return fmt.Errorf("places status %s: %s", out.Status, out.ErrorMessage)
	}
}

var officeTypes = []string{"real_estate_agency", "accounting", "lawyer", "insurance_agency", "consulting", "it"}

var marketTypes = []string{"department_store", "supermarket", "grocery_or_supermarket", "convenience_store"}

// CategoryForTypes maps the types of one place to a category. The checks
// run in a fixed priority order.
func CategoryForTypes(types []string) db.Category {
	has := func(want ...string) bool {
		for _, t := range types {
			for _, w := range want {
				if t == w {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("shopping_mall"):
		return db.CategoryMall
	case has("movie_theater"):
		return db.CategoryCinema
	case has(marketTypes...):
		return db.CategoryMarket
	case has(officeTypes...):
		return db.CategoryOffice
	case has("university"):
		return db.CategoryUniversity
	case has("school"):
		return db.CategorySchool
	default:
		return db.CategoryNone
	}
}
