package gmaps

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// fakeMatrixAPI answers DistanceMatrix calls from a synthetic rule:
// distance(i→j) = 1000·i + j meters, duration = distance seconds. Origins
// and destinations are recovered from the latitude, which the test sets to
// the location index.
type fakeMatrixAPI struct {
	calls        int
	maxBlockSize int
}

func (f *fakeMatrixAPI) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.calls++
	if size := len(r.Origins) * len(r.Destinations); size > f.maxBlockSize {
		f.maxBlockSize = size
	}

	resp := &maps.DistanceMatrixResponse{}
	for _, o := range r.Origins {
		row := maps.DistanceMatrixElementsRow{}
		oi := indexFromCoord(o)
		for _, d := range r.Destinations {
			dj := indexFromCoord(d)
			meters := 1000*oi + dj
			row.Elements = append(row.Elements, &maps.DistanceMatrixElement{
				Status:   "OK",
				Distance: maps.Distance{Meters: meters},
				Duration: time.Duration(meters) * time.Second,
			})
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func indexFromCoord(coord string) int {
	lat := strings.SplitN(coord, ",", 2)[0]
	f, _ := strconv.ParseFloat(lat, 64)
	return int(f)
}

func locationsWithIndexLat(n int) []model.Coordinates {
	locs := make([]model.Coordinates, n)
	for i := range locs {
		locs[i] = model.Coordinates{Latitude: float64(i), Longitude: 4.5}
	}
	return locs
}

func TestMatrices_TilesAndStitches(t *testing.T) {
	// 33 locations → 1089 elements, well past the 100-element per-call
	// limit, so the adapter must tile and reassemble.
	fake := &fakeMatrixAPI{}
	c := &Client{matrix: fake}

	locs := locationsWithIndexLat(33)
	dist, travel, err := c.Matrices(context.Background(), locs)
	require.NoError(t, err)

	require.Len(t, dist, 33)
	require.Len(t, travel, 33)
	for i := 0; i < 33; i++ {
		require.Len(t, dist[i], 33)
		for j := 0; j < 33; j++ {
			want := int64(1000*i + j)
			assert.Equal(t, want, dist[i][j], "dist[%d][%d]", i, j)
			assert.Equal(t, want, travel[i][j], "travel[%d][%d]", i, j)
		}
	}

	assert.Greater(t, fake.calls, 1, "a 33×33 request must be split")
	assert.LessOrEqual(t, fake.maxBlockSize, maxElements)
}

type unreachableAPI struct{}

func (unreachableAPI) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	resp := &maps.DistanceMatrixResponse{}
	for range r.Origins {
		row := maps.DistanceMatrixElementsRow{}
		for range r.Destinations {
			row.Elements = append(row.Elements, &maps.DistanceMatrixElement{Status: "ZERO_RESULTS"})
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func TestMatrices_UnreachablePairsGetPenaltyValue(t *testing.T) {
	c := &Client{matrix: unreachableAPI{}}
	dist, travel, err := c.Matrices(context.Background(), locationsWithIndexLat(3))
	require.NoError(t, err, "unreachable pairs are a value, not an error")
	assert.Equal(t, Unreachable, dist[0][1])
	assert.Equal(t, Unreachable, travel[2][0])
}

type fakeGeocodeAPI struct {
	results map[string][]maps.GeocodingResult
}

func (f *fakeGeocodeAPI) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	return f.results[r.Address], nil
}

func TestGeocode(t *testing.T) {
	fake := &fakeGeocodeAPI{results: map[string][]maps.GeocodingResult{
		"Conradstraat 10 Rotterdam": {
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 51.9233, Lng: 4.4692}}},
		},
	}}
	c := &Client{geocode: fake}

	coord, err := c.Geocode(context.Background(), "Conradstraat 10 Rotterdam")
	require.NoError(t, err)
	assert.InDelta(t, 51.9233, coord.Latitude, 1e-9)
	assert.InDelta(t, 4.4692, coord.Longitude, 1e-9)

	_, err = c.Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, ErrAddressUnresolvable)
}
