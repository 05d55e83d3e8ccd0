// Package gmaps adapts the Google Maps Platform to the optimizer: the
// Distance Matrix API for pairwise driving distance/time and the Geocoding
// API for address resolution. Requests are tiled to stay inside the API's
// per-call limits and stitched back into full square matrices.
package gmaps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// Unreachable is written into the matrices for pairs the API reports no
// route for. Large enough that the solver never prefers such an arc.
const Unreachable int64 = 1_000_000_000

// Distance Matrix API per-request limits.
const (
	maxElements     = 100
	maxOrigins      = 25
	maxDestinations = 25
)

// ErrAddressUnresolvable is returned when the Geocoding API has no result
// for an address.
var ErrAddressUnresolvable = errors.New("gmaps: address could not be geocoded")

// distanceMatrixAPI and geocodeAPI are the two slices of *maps.Client the
// adapter uses, split out so tests can run against fakes.
type distanceMatrixAPI interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

type geocodeAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Client wraps the Google Maps client behind the provider interfaces the
// optimization service pulls.
type Client struct {
	matrix  distanceMatrixAPI
	geocode geocodeAPI
}

// NewClient creates an adapter backed by the official Google Maps client.
func NewClient(apiKey string) (*Client, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gmaps: create client: %w", err)
	}
	return &Client{matrix: c, geocode: c}, nil
}

// Matrices fetches the full N×N driving distance (meters) and time
// (seconds) matrices for the ordered location list. Calls are tiled at
// maxOrigins×maxDestinations and maxElements per request, mirroring the
// API quota shape, and stitched into place by global index.
func (c *Client) Matrices(ctx context.Context, locations []model.Coordinates) (dist, travel [][]int64, err error) {
	n := len(locations)
	dist = make([][]int64, n)
	travel = make([][]int64, n)
	for i := range dist {
		dist[i] = make([]int64, n)
		travel[i] = make([]int64, n)
	}

	rows := maxElements / maxDestinations
	if rows > maxOrigins {
		rows = maxOrigins
	}
	cols := maxElements / rows
	if cols > maxDestinations {
		cols = maxDestinations
	}

	coords := make([]string, n)
	for i, l := range locations {
		coords[i] = fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
	}

	for i := 0; i < n; i += rows {
		iEnd := i + rows
		if iEnd > n {
			iEnd = n
		}
		for j := 0; j < n; j += cols {
			jEnd := j + cols
			if jEnd > n {
				jEnd = n
			}

			resp, err := c.matrix.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
				Origins:      coords[i:iEnd],
				Destinations: coords[j:jEnd],
				Mode:         maps.TravelModeDriving,
				Units:        maps.UnitsMetric,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("gmaps: distance matrix block (%d,%d): %w", i, j, err)
			}
			if len(resp.Rows) != iEnd-i {
				return nil, nil, fmt.Errorf("gmaps: distance matrix block (%d,%d): got %d rows, want %d",
					i, j, len(resp.Rows), iEnd-i)
			}

			for oi, row := range resp.Rows {
				if len(row.Elements) != jEnd-j {
					return nil, nil, fmt.Errorf("gmaps: distance matrix block (%d,%d): row %d has %d elements, want %d",
						i, j, oi, len(row.Elements), jEnd-j)
				}
				for dj, el := range row.Elements {
					if el.Status == "OK" {
						dist[i+oi][j+dj] = int64(el.Distance.Meters)
						travel[i+oi][j+dj] = int64(el.Duration.Seconds())
					} else {
						// No route: penalty value, never an error.
						dist[i+oi][j+dj] = Unreachable
						travel[i+oi][j+dj] = Unreachable
					}
				}
			}
		}
	}

	return dist, travel, nil
}

// Geocode resolves an address string to coordinates. The first result
// wins, matching how the dispatcher's addresses are written.
func (c *Client) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	results, err := c.geocode.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("gmaps: geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return model.Coordinates{}, fmt.Errorf("%w: %q", ErrAddressUnresolvable, address)
	}
	loc := results[0].Geometry.Location
	return model.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
