package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/geo"
)

var testDepot = model.Coordinates{Latitude: 51.92173421692392, Longitude: 4.487105575001821}

// at builds a timestamp on the fixed planning day.
func at(hour, minute int) time.Time {
	return time.Date(2025, 7, 22, hour, minute, 0, 0, time.UTC)
}

// booking builds a test booking with one passenger unless overridden.
func booking(id string, pickupAt, deliverAt time.Time, pickup, delivery model.Coordinates) model.Booking {
	return model.Booking{
		ID:           id,
		Customer:     "test",
		Passengers:   1,
		PickupTime:   pickupAt,
		DeliveryTime: deliverAt,
		Pickup:       pickup,
		Delivery:     delivery,
	}
}

// matricesFromGeo estimates integer distance and travel matrices with the
// haversine helpers, the same way the offline provider does.
func matricesFromGeo(locs []model.Coordinates) (dist, travel [][]int64) {
	n := len(locs)
	dist = make([][]int64, n)
	travel = make([][]int64, n)
	for i := range locs {
		dist[i] = make([]int64, n)
		travel[i] = make([]int64, n)
		for j := range locs {
			if i == j {
				continue
			}
			dist[i][j] = int64(geo.HaversineM(locs[i], locs[j]))
			travel[i][j] = geo.EstimateDriveSeconds(locs[i], locs[j])
		}
	}
	return dist, travel
}

func buildTestProblem(t *testing.T, bookings []model.Booking, fleet []model.Vehicle, params Params) *Problem {
	t.Helper()
	locs := Locations(testDepot, bookings)
	dist, travel := matricesFromGeo(locs)
	p, err := BuildProblem(bookings, locs, dist, travel, fleet, params)
	require.NoError(t, err)
	return p
}

func fastParams() Params {
	p := DefaultParams()
	p.TimeLimit = 2 * time.Second
	p.MaxIterations = 200
	return p
}

func TestBuildProblem_NodeLayout(t *testing.T) {
	a := model.Coordinates{Latitude: 51.95, Longitude: 4.45}
	b := model.Coordinates{Latitude: 52.00, Longitude: 4.40}
	bookings := []model.Booking{
		booking("A", at(9, 0), at(9, 30), a, b),
		booking("B", at(10, 0), at(11, 0), b, a),
	}

	p := buildTestProblem(t, bookings, model.DefaultFleet(), DefaultParams())

	require.Equal(t, 5, p.NumNodes())
	assert.Equal(t, []Pair{{1, 2}, {3, 4}}, p.Pairs)

	// Pickup window is ±25 min, delivery window late-only +25 min.
	assert.Equal(t, Window{Start: 9*3600 - 1500, End: 9*3600 + 1500}, p.Windows[1])
	assert.Equal(t, Window{Start: 9*3600 + 30*60, End: 9*3600 + 30*60 + 1500}, p.Windows[2])

	// Signed demands: +p at pickup, −p at delivery, 0 at depot.
	assert.Equal(t, int64(0), p.SeatDemand[0])
	assert.Equal(t, int64(1), p.SeatDemand[1])
	assert.Equal(t, int64(-1), p.SeatDemand[2])

	// Depot window: earliest pickup start − 1h, latest delivery end + 1h.
	earliest := int64(9*3600 - 1500 - 3600)
	latest := int64(11*3600 + 1500 + 3600)
	assert.Equal(t, Window{Start: earliest, End: latest}, p.Windows[0])
	assert.Equal(t, latest-3600+86_400, p.Horizon)
}

func TestBuildProblem_DepotWindowClampsAtMidnight(t *testing.T) {
	a := model.Coordinates{Latitude: 51.95, Longitude: 4.45}
	bookings := []model.Booking{
		booking("early", at(0, 30), at(1, 0), a, testDepot),
	}
	p := buildTestProblem(t, bookings, model.DefaultFleet(), DefaultParams())
	assert.Equal(t, int64(0), p.Windows[0].Start)
}

func TestBuildProblem_Empty(t *testing.T) {
	_, err := BuildProblem(nil, nil, nil, nil, model.DefaultFleet(), DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyProblem)
}

func TestBuildProblem_MatrixShape(t *testing.T) {
	a := model.Coordinates{Latitude: 51.95, Longitude: 4.45}
	bookings := []model.Booking{booking("A", at(9, 0), at(9, 30), a, testDepot)}
	locs := Locations(testDepot, bookings)

	square := func(n int) [][]int64 {
		m := make([][]int64, n)
		for i := range m {
			m[i] = make([]int64, n)
		}
		return m
	}

	_, err := BuildProblem(bookings, locs, square(2), square(3), model.DefaultFleet(), DefaultParams())
	assert.ErrorIs(t, err, ErrMatrixShape)

	ragged := square(3)
	ragged[1] = ragged[1][:2]
	_, err = BuildProblem(bookings, locs, square(3), ragged, model.DefaultFleet(), DefaultParams())
	assert.ErrorIs(t, err, ErrMatrixShape)
}

func TestBookingForNode(t *testing.T) {
	a := model.Coordinates{Latitude: 51.95, Longitude: 4.45}
	bookings := []model.Booking{
		booking("A", at(9, 0), at(9, 30), a, testDepot),
		booking("B", at(10, 0), at(10, 30), a, testDepot),
	}
	p := buildTestProblem(t, bookings, model.DefaultFleet(), DefaultParams())

	idx, pickup := p.BookingForNode(0)
	assert.Equal(t, -1, idx)
	assert.False(t, pickup)

	idx, pickup = p.BookingForNode(3)
	assert.Equal(t, 1, idx)
	assert.True(t, pickup)

	idx, pickup = p.BookingForNode(4)
	assert.Equal(t, 1, idx)
	assert.False(t, pickup)
}
