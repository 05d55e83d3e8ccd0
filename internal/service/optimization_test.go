package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/optimizer"
)

var depot = model.Coordinates{Latitude: 51.92173421692392, Longitude: 4.487105575001821}

// memStore is an in-memory ResultStore.
type memStore struct {
	mu     sync.Mutex
	result model.OptimizeResult
	saved  bool
}

func (m *memStore) Save(result model.OptimizeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.saved = true
	return nil
}

func (m *memStore) Load() (model.OptimizeResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.saved, nil
}

// fakeGeocoder resolves addresses from a fixed table.
type fakeGeocoder struct {
	table map[string]model.Coordinates
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (model.Coordinates, error) {
	coord, ok := f.table[address]
	if !ok {
		return model.Coordinates{}, errors.New("unknown address")
	}
	return coord, nil
}

// failingProvider always errors.
type failingProvider struct{}

func (failingProvider) Matrices(context.Context, []model.Coordinates) ([][]int64, [][]int64, error) {
	return nil, nil, errors.New("quota exceeded")
}

func fastTestParams() optimizer.Params {
	p := optimizer.DefaultParams()
	p.TimeLimit = time.Second
	p.MaxIterations = 50
	return p
}

func newTestService(geocoder Geocoder, provider MatrixProvider) (*OptimizationService, *memStore) {
	store := &memStore{}
	if provider == nil {
		provider = HaversineMatrixProvider{}
	}
	svc := NewOptimizationService(provider, geocoder, store, nil, depot, model.DefaultFleet(), fastTestParams())
	return svc, store
}

func testBooking(id string) model.Booking {
	return model.Booking{
		ID:           id,
		Customer:     "test",
		Passengers:   1,
		PickupTime:   time.Date(2025, 7, 22, 9, 0, 0, 0, time.UTC),
		DeliveryTime: time.Date(2025, 7, 22, 10, 0, 0, 0, time.UTC),
		Pickup:       model.Coordinates{Latitude: 51.93, Longitude: 4.49},
		Delivery:     model.Coordinates{Latitude: 52.01, Longitude: 4.36},
	}
}

func TestOptimize_EmptyBookings(t *testing.T) {
	svc, store := newTestService(nil, nil)

	result, err := svc.Optimize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.DroppedBookings)
	assert.False(t, store.saved, "empty solves are not persisted")
}

func TestOptimize_EndToEnd(t *testing.T) {
	svc, store := newTestService(nil, nil)

	result, err := svc.Optimize(context.Background(), []model.Booking{testBooking("A")})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)
	assert.Empty(t, result.DroppedBookings)
	assert.True(t, store.saved, "successful solves persist the result")

	loaded, found, err := svc.LastResult()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result, loaded)
}

func TestOptimize_InvalidBooking(t *testing.T) {
	svc, _ := newTestService(nil, nil)

	bad := testBooking("A")
	bad.Passengers = -1

	_, err := svc.Optimize(context.Background(), []model.Booking{bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimize_GeocodesMissingCoordinates(t *testing.T) {
	geocoder := &fakeGeocoder{table: map[string]model.Coordinates{
		"Conradstraat 10 Rotterdam": {Latitude: 51.9233, Longitude: 4.4692},
	}}
	svc, _ := newTestService(geocoder, nil)

	b := testBooking("A")
	b.Pickup = model.Coordinates{}
	b.PickupAddress = "Conradstraat 10 Rotterdam"

	result, err := svc.Optimize(context.Background(), []model.Booking{b})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)

	served := result.Clusters[0].Bookings[0].Booking
	assert.InDelta(t, 51.9233, served.Pickup.Latitude, 1e-9)
}

func TestOptimize_MissingCoordinatesWithoutGeocoder(t *testing.T) {
	svc, _ := newTestService(nil, nil)

	b := testBooking("A")
	b.Pickup = model.Coordinates{}

	_, err := svc.Optimize(context.Background(), []model.Booking{b})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimize_GeocodeFailureAborts(t *testing.T) {
	svc, _ := newTestService(&fakeGeocoder{}, nil)

	b := testBooking("A")
	b.Delivery = model.Coordinates{}
	b.DeliveryAddress = "nowhere"

	_, err := svc.Optimize(context.Background(), []model.Booking{b})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestOptimize_ProviderFailureAborts(t *testing.T) {
	svc, _ := newTestService(nil, failingProvider{})

	_, err := svc.Optimize(context.Background(), []model.Booking{testBooking("A")})
	assert.ErrorIs(t, err, ErrProvider)
}
