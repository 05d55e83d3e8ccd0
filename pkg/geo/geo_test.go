package geo

import (
	"math"
	"testing"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

func TestHaversineKm_SamePoint(t *testing.T) {
	loc := model.Coordinates{Latitude: 51.9225, Longitude: 4.4792}
	got := HaversineKm(loc, loc)
	if got != 0 {
		t.Errorf("HaversineKm(same point) = %v, want 0", got)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Rotterdam Centraal to Den Haag Centraal (~20 km)
	rotterdam := model.Coordinates{Latitude: 51.9244, Longitude: 4.4690}
	denHaag := model.Coordinates{Latitude: 52.0805, Longitude: 4.3250}
	got := HaversineKm(rotterdam, denHaag)
	wantMin, wantMax := 18.0, 24.0
	if got < wantMin || got > wantMax {
		t.Errorf("HaversineKm(Rotterdam→Den Haag) = %.2f km, want between %.1f and %.1f", got, wantMin, wantMax)
	}
}

func TestEstimateDriveSeconds(t *testing.T) {
	a := model.Coordinates{Latitude: 51.9244, Longitude: 4.4690}
	b := model.Coordinates{Latitude: 52.0805, Longitude: 4.3250}
	got := EstimateDriveSeconds(a, b)
	// ~20 km at 60 km/h ≈ 20 min
	if got < 15*60 || got > 30*60 {
		t.Errorf("EstimateDriveSeconds = %ds, expected ~20 min", got)
	}
}

func TestHaversineM(t *testing.T) {
	a := model.Coordinates{Latitude: 0, Longitude: 0}
	b := model.Coordinates{Latitude: 0.001, Longitude: 0}
	km := HaversineKm(a, b)
	m := HaversineM(a, b)
	if math.Abs(m-km*1000) > 0.01 {
		t.Errorf("HaversineM = %v, want HaversineKm*1000 = %v", m, km*1000)
	}
}
