// Package geo provides geographic utility functions for the route optimizer.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates.
// Travel time is estimated using a constant average speed — the offline
// matrix provider and the test suite run on these estimates; production
// solves use the Google Distance Matrix adapter instead.
package geo

import (
	"math"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// EarthRadiusM is the mean radius of Earth in meters.
	EarthRadiusM = 6_371_000.0

	// AverageSpeedKmph is the assumed average driving speed for intercity
	// paratransit trips. Used for time estimation when the Distance Matrix
	// API is not available.
	AverageSpeedKmph = 60.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Coordinates) float64 {
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Latitude))*math.Cos(degToRad(b.Latitude))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b model.Coordinates) float64 {
	return HaversineKm(a, b) * 1000.0
}

// ─── Time estimation ────────────────────────────────────────

// EstimateDriveSeconds returns the estimated direct driving time between
// two points in whole seconds, assuming AverageSpeedKmph.
//
// Complexity: O(1)
func EstimateDriveSeconds(a, b model.Coordinates) int64 {
	hours := HaversineKm(a, b) / AverageSpeedKmph
	return int64(math.Round(hours * 3600.0))
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
