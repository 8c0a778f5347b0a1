package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgepark/internal/db"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/repository"
)

func TestCreateLocationClassifies(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAdminService(store, fakeClassifier{category: db.CategoryMall}, quietLogger())

	loc, err := svc.CreateLocation(ctx, entities.LocationRequest{
		Address: " Corso Buenos Aires 1 ", Lat: 45.47, Lng: 9.2, NumberOfSpots: 12, HourlyRate: 2.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID)
	assert.Equal(t, "Corso Buenos Aires 1", loc.Address)
	assert.Equal(t, db.CategoryMall, loc.Category)
	assert.True(t, loc.DynamicPricing)
	assert.Equal(t, db.LocationAvailable, loc.Status)

	stored, err := store.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, stored.NumberOfSpots)
}

func TestCreateLocationFailures(t *testing.T) {
	ctx := context.Background()
	down := fakeClassifier{err: fmt.Errorf("places: %w", apperr.ErrUpstreamUnavailable)}
	svc := NewAdminService(repository.NewMemoryStore(), down, quietLogger())

	_, err := svc.CreateLocation(ctx, entities.LocationRequest{Address: "Via Roma 1", Lat: 45, Lng: 9, NumberOfSpots: 1})
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)

	for name, req := range map[string]entities.LocationRequest{
		"no address":     {Lat: 45, Lng: 9},
		"bad latitude":   {Address: "x", Lat: 95, Lng: 9},
		"negative spots": {Address: "x", Lat: 45, Lng: 9, NumberOfSpots: -1},
		"negative rate":  {Address: "x", Lat: 45, Lng: 9, HourlyRate: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateLocation(ctx, req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestLocationSetters(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAdminService(store, nil, quietLogger())
	disabled := false
	loc, err := svc.CreateLocation(ctx, entities.LocationRequest{
		Address: "Via Roma 1", Lat: 45, Lng: 9, NumberOfSpots: 3, HourlyRate: 2, DynamicPricing: &disabled,
	})
	require.NoError(t, err)
	assert.False(t, loc.DynamicPricing)
	assert.Equal(t, db.CategoryNone, loc.Category)

	require.NoError(t, svc.SetDynamicPricing(ctx, loc.ID, true))
	require.NoError(t, svc.SetCategory(ctx, loc.ID, "Office"))
	require.NoError(t, svc.SetStatus(ctx, loc.ID, "notavailable"))

	got, err := store.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, got.DynamicPricing)
	assert.Equal(t, db.CategoryOffice, got.Category)
	assert.Equal(t, db.LocationNotAvailable, got.Status)

	assert.ErrorIs(t, svc.SetCategory(ctx, loc.ID, "stadium"), apperr.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetStatus(ctx, loc.ID, "FULL"), apperr.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetDynamicPricing(ctx, "missing", true), apperr.ErrNotFound)

	all, err := svc.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAdminAuthService(repository.NewMemoryAdminRepository(), "test-secret", time.Hour)

	require.NoError(t, svc.CreateAdmin(ctx, "Admin@Example.com", "correct horse"))
	assert.ErrorIs(t, svc.CreateAdmin(ctx, "admin@example.com", "another password"), apperr.ErrInvalidInput)
	assert.ErrorIs(t, svc.CreateAdmin(ctx, "short@example.com", "short"), apperr.ErrInvalidInput)

	signed, err := svc.Login(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims["email"])

	_, err = svc.Login(ctx, "admin@example.com", "wrong")
	assert.Equal(t, 401, apperr.StatusCode(err))
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.Equal(t, 401, apperr.StatusCode(err))
}
