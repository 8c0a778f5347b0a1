package repository

import (
	"context"
	"fmt"
	"time"

	"surgepark/internal/db"
)

const locationColumns = `id, address, lat, lng, number_of_spots, hourly_rate, status, dynamic_pricing, category, created_at, updated_at`

func scanLocation(row rowScanner) (*db.Location, error) {
	var loc db.Location
	err := row.Scan(
		&loc.ID, &loc.Address, &loc.Lat, &loc.Lng, &loc.NumberOfSpots, &loc.HourlyRate,
		&loc.Status, &loc.DynamicPricing, &loc.Category, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, id string) (*db.Location, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM parking_locations WHERE id = $1`, id)
	loc, err := scanLocation(row)
	if err != nil {
		return nil, notFoundOr(err, "location", id)
	}
	return loc, nil
}

func (s *PostgresStore) CreateLocation(ctx context.Context, loc *db.Location) error {
	query := `
		INSERT INTO parking_locations
		(id, address, lat, lng, number_of_spots, hourly_rate, status, dynamic_pricing, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.DB.ExecContext(ctx, query,
		loc.ID,
		loc.Address,
		loc.Lat,
		loc.Lng,
		loc.NumberOfSpots,
		loc.HourlyRate,
		loc.Status,
		loc.DynamicPricing,
		loc.Category,
		loc.CreatedAt,
		loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting location: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLocations(ctx context.Context) ([]db.Location, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+locationColumns+` FROM parking_locations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error querying locations: %w", err)
	}
	defer rows.Close()

	var locations []db.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating locations: %w", err)
	}
	return locations, nil
}

func (s *PostgresStore) SetDynamicPricing(ctx context.Context, id string, enabled bool) error {
	return s.updateLocation(ctx, id, "dynamic_pricing", enabled)
}

func (s *PostgresStore) SetCategory(ctx context.Context, id string, category db.Category) error {
	return s.updateLocation(ctx, id, "category", category)
}

func (s *PostgresStore) SetStatus(ctx context.Context, id string, status db.LocationStatus) error {
	return s.updateLocation(ctx, id, "status", status)
}

// updateLocation is only called with the fixed column names above.
func (s *PostgresStore) updateLocation(ctx context.Context, id, column string, value any) error {
	query := `UPDATE parking_locations SET ` + column + ` = $2, updated_at = $3 WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, value, time.Now().UTC())
	if err != nil {
		return notFoundOr(err, "location", id)
	}
	return expectOneRow(res, "location", id)
}
