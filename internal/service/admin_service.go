package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"surgepark/internal/db"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/places"
	"surgepark/internal/repository"
	"surgepark/internal/utils"
)

// AdminService manages parking locations. Location flags only change
// through the closed set of setters below.
type AdminService struct {
	store      repository.LocationStore
	classifier places.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewAdminService(store repository.LocationStore, classifier places.Classifier, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{store: store, classifier: classifier, logger: logger, now: time.Now}
}

// CreateLocation classifies the surroundings once; a classifier outage fails
// the creation. Dynamic pricing defaults to on.
func (s *AdminService) CreateLocation(ctx context.Context, req entities.LocationRequest) (*db.Location, error) {
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		return nil, fmt.Errorf("address is required: %w", apperr.ErrInvalidInput)
	}
	if !utils.ValidCoordinates(req.Lat, req.Lng) {
		return nil, fmt.Errorf("coordinates %v,%v out of range: %w", req.Lat, req.Lng, apperr.ErrInvalidInput)
	}
	if req.NumberOfSpots < 0 {
		return nil, fmt.Errorf("number_of_spots must not be negative: %w", apperr.ErrInvalidInput)
	}
	if req.HourlyRate < 0 {
		return nil, fmt.Errorf("hourly_rate must not be negative: %w", apperr.ErrInvalidInput)
	}

	category := db.CategoryNone
	if s.classifier != nil {
		c, err := s.classifier.Classify(ctx, req.Lat, req.Lng)
		if err != nil {
			return nil, fmt.Errorf("classifying location: %w", err)
		}
		category = c
	}

	dynamic := true
	if req.DynamicPricing != nil {
		dynamic = *req.DynamicPricing
	}
	now := s.now()
	loc := &db.Location{
		ID:             uuid.NewString(),
		Address:        req.Address,
		Lat:            req.Lat,
		Lng:            req.Lng,
		NumberOfSpots:  req.NumberOfSpots,
		HourlyRate:     req.HourlyRate,
		Status:         db.LocationAvailable,
		DynamicPricing: dynamic,
		Category:       category,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}
	s.logger.Info("location_created", "location_id", loc.ID, "category", loc.Category, "spots", loc.NumberOfSpots)
	return loc, nil
}

func (s *AdminService) ListLocations(ctx context.Context) ([]db.Location, error) {
	return s.store.ListLocations(ctx)
}

func (s *AdminService) SetDynamicPricing(ctx context.Context, id string, enabled bool) error {
	if err := s.store.SetDynamicPricing(ctx, id, enabled); err != nil {
		return err
	}
	s.logger.Info("location_dynamic_pricing", "location_id", id, "enabled", enabled)
	return nil
}

func (s *AdminService) SetCategory(ctx context.Context, id, category string) error {
	c, err := db.ParseCategory(category)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidInput)
	}
	if err := s.store.SetCategory(ctx, id, c); err != nil {
		return err
	}
	s.logger.Info("location_category", "location_id", id, "category", c)
	return nil
}

// SetStatus toggles operator availability. FULL is derived, never stored.
func (s *AdminService) SetStatus(ctx context.Context, id, status string) error {
	st := db.LocationStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != db.LocationAvailable && st != db.LocationNotAvailable {
		return fmt.Errorf("status must be %s or %s: %w", db.LocationAvailable, db.LocationNotAvailable, apperr.ErrInvalidInput)
	}
	if err := s.store.SetStatus(ctx, id, st); err != nil {
		return err
	}
	s.logger.Info("location_status", "location_id", id, "status", st)
	return nil
}
