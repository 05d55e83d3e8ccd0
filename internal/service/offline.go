package service

import (
	"context"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/geo"
)

// HaversineMatrixProvider estimates the matrices from great-circle
// distance at a constant driving speed. It backs the service when no
// Google API key is configured and keeps local development and the test
// suite independent of the network.
type HaversineMatrixProvider struct{}

// Matrices implements MatrixProvider.
func (HaversineMatrixProvider) Matrices(_ context.Context, locations []model.Coordinates) ([][]int64, [][]int64, error) {
	n := len(locations)
	dist := make([][]int64, n)
	travel := make([][]int64, n)
	for i := range locations {
		dist[i] = make([]int64, n)
		travel[i] = make([]int64, n)
		for j := range locations {
			if i == j {
				continue
			}
			dist[i][j] = int64(geo.HaversineM(locations[i], locations[j]))
			travel[i][j] = geo.EstimateDriveSeconds(locations[i], locations[j])
		}
	}
	return dist, travel, nil
}
