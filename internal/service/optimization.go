// Package service contains the business logic around a solve: geocoding
// missing coordinates, fetching the matrices, running the optimizer, and
// persisting the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/optimizer"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/repository"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrInvalidInput marks booking validation failures; the handler maps
	// it to a 422.
	ErrInvalidInput = errors.New("invalid booking data")

	// ErrProvider marks geocoder or matrix fetch failures; the solve
	// aborts and the handler maps it to a 502.
	ErrProvider = errors.New("external provider failed")
)

// ─── Collaborator interfaces ────────────────────────────────

// MatrixProvider supplies the pairwise driving matrices for an ordered
// location list. Unreachable pairs carry the penalty sentinel, not errors.
type MatrixProvider interface {
	Matrices(ctx context.Context, locations []model.Coordinates) (dist, travel [][]int64, err error)
}

// Geocoder resolves an address to coordinates. Only consulted for
// bookings whose coordinates are missing or (0, 0).
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, error)
}

// ResultStore persists the last successful result for GET retrieval.
type ResultStore interface {
	Save(result model.OptimizeResult) error
	Load() (model.OptimizeResult, bool, error)
}

// SolveRecorder appends a solve run to the history. May be nil when
// Postgres is disabled.
type SolveRecorder interface {
	Record(ctx context.Context, run repository.SolveRun) error
}

// maxConcurrentGeocodes bounds parallel Geocoding API calls, well under
// the default 50 QPS quota.
const maxConcurrentGeocodes = 10

// ─── OptimizationService ────────────────────────────────────

// OptimizationService runs the full solve pipeline. One call owns its
// problem data end to end; concurrent calls are independent.
type OptimizationService struct {
	matrices MatrixProvider
	geocoder Geocoder
	store    ResultStore
	recorder SolveRecorder

	depot  model.Coordinates
	fleet  []model.Vehicle
	params optimizer.Params
}

// NewOptimizationService wires the solve pipeline. geocoder and recorder
// may be nil: without a geocoder, bookings missing coordinates are
// rejected; without a recorder, no history is kept.
func NewOptimizationService(
	matrices MatrixProvider,
	geocoder Geocoder,
	store ResultStore,
	recorder SolveRecorder,
	depot model.Coordinates,
	fleet []model.Vehicle,
	params optimizer.Params,
) *OptimizationService {
	return &OptimizationService{
		matrices: matrices,
		geocoder: geocoder,
		store:    store,
		recorder: recorder,
		depot:    depot,
		fleet:    fleet,
		params:   params,
	}
}

// Optimize validates and geocodes the bookings, builds the problem, and
// solves it. Zero bookings yield an empty result, not an error. A solver
// timeout without any feasible assignment degrades to "everything
// dropped" rather than failing the request.
func (s *OptimizationService) Optimize(ctx context.Context, bookings []model.Booking) (model.OptimizeResult, error) {
	if len(bookings) == 0 {
		log.Printf("[optimize] empty booking list, nothing to solve")
		return model.OptimizeResult{Clusters: []model.Cluster{}, DroppedBookings: []model.Booking{}}, nil
	}

	for i := range bookings {
		if err := bookings[i].Validate(); err != nil {
			return model.OptimizeResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if err := s.geocodeMissing(ctx, bookings); err != nil {
		return model.OptimizeResult{}, err
	}

	locations := optimizer.Locations(s.depot, bookings)
	log.Printf("[optimize] fetching matrices for %d locations (%d bookings)", len(locations), len(bookings))

	dist, travel, err := s.matrices.Matrices(ctx, locations)
	if err != nil {
		return model.OptimizeResult{}, fmt.Errorf("%w: matrices: %v", ErrProvider, err)
	}

	problem, err := optimizer.BuildProblem(bookings, locations, dist, travel, s.fleet, s.params)
	if err != nil {
		return model.OptimizeResult{}, err
	}

	started := time.Now()
	solution, err := optimizer.Solve(problem)
	if errors.Is(err, optimizer.ErrNoSolution) {
		log.Printf("[optimize] no feasible assignment within the time limit; dropping all %d bookings", len(bookings))
		return model.OptimizeResult{
			Clusters:        []model.Cluster{},
			DroppedBookings: append([]model.Booking(nil), bookings...),
		}, nil
	}
	if err != nil {
		return model.OptimizeResult{}, err
	}

	result := solution.Extract()
	s.persist(ctx, result, len(bookings), time.Since(started))
	return result, nil
}

// LastResult returns the most recent persisted result.
func (s *OptimizationService) LastResult() (model.OptimizeResult, bool, error) {
	return s.store.Load()
}

// geocodeMissing fills coordinates for bookings that arrived without
// them, up to maxConcurrentGeocodes at a time.
func (s *OptimizationService) geocodeMissing(ctx context.Context, bookings []model.Booking) error {
	type task struct {
		target  *model.Coordinates
		address string
	}
	var tasks []task
	for i := range bookings {
		b := &bookings[i]
		if b.Pickup.IsZero() {
			tasks = append(tasks, task{&b.Pickup, b.PickupAddress})
		}
		if b.Delivery.IsZero() {
			tasks = append(tasks, task{&b.Delivery, b.DeliveryAddress})
		}
	}
	if len(tasks) == 0 {
		return nil
	}
	if s.geocoder == nil {
		return fmt.Errorf("%w: %d addresses need geocoding but no geocoder is configured", ErrInvalidInput, len(tasks))
	}

	log.Printf("[optimize] geocoding %d addresses", len(tasks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		sem      = make(chan struct{}, maxConcurrentGeocodes)
	)
	for _, tk := range tasks {
		wg.Add(1)
		go func(tk task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			coord, err := s.geocoder.Geocode(ctx, tk.address)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: geocode %q: %v", ErrProvider, tk.address, err)
				}
				return
			}
			*tk.target = coord
		}(tk)
	}
	wg.Wait()
	return firstErr
}

// persist writes the result to the file store and, when configured, the
// solve history. Persistence failures are logged, never surfaced — the
// caller already has the result.
func (s *OptimizationService) persist(ctx context.Context, result model.OptimizeResult, requested int, took time.Duration) {
	if err := s.store.Save(result); err != nil {
		log.Printf("[optimize] persist result: %v", err)
	}
	if s.recorder == nil {
		return
	}

	served := 0
	for _, c := range result.Clusters {
		served += len(c.Bookings)
	}
	run := repository.SolveRun{
		RequestedBookings: requested,
		ServedBookings:    served,
		DroppedBookings:   len(result.DroppedBookings),
		Duration:          took,
		Result:            result,
	}
	if err := s.recorder.Record(ctx, run); err != nil {
		log.Printf("[optimize] record solve run: %v", err)
	}
}
