// Package optimizer solves the paratransit pickup-and-delivery problem:
// assign same-day bookings to a small heterogeneous fleet and order the
// stops per vehicle, minimizing total distance, route span, and the number
// of unserved bookings.
//
// The pipeline is: Locations → (matrix provider) → BuildProblem → Solve →
// Extract. Everything inside a Problem is read-only once built; a solve
// owns no shared state, so independent solves may run concurrently.
package optimizer

import (
	"fmt"
	"time"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/timeutil"
)

// Unreachable is the sentinel matrix value for pairs the provider could not
// route. Large enough that the search never prefers such an arc, small
// enough not to overflow when summed along a route.
const Unreachable int64 = 1_000_000_000

// Params holds the solver tuning knobs. DefaultParams matches the
// production configuration; tests shrink the time limit.
type Params struct {
	// ServiceTime is the fixed dwell in seconds at every non-depot stop.
	ServiceTime int64
	// PickupTolerance widens the pickup window to ±PickupTolerance around
	// the requested time.
	PickupTolerance int64
	// DeliveryLate extends the delivery window by DeliveryLate past the
	// requested time. There is no early-delivery tolerance.
	DeliveryLate int64
	// DropPenalty is the objective cost of leaving one booking unserved.
	// It must dominate any realistic routing cost in meters.
	DropPenalty int64
	// DistanceSpanCoeff and TimeSpanCoeff weight the fleet-wide span of the
	// distance and time dimensions, balancing workload across vehicles.
	DistanceSpanCoeff int64
	TimeSpanCoeff     int64
	// MaxRouteDistance caps the cumulative distance of a single route.
	MaxRouteDistance int64
	// MaxWait caps the waiting slack a vehicle may spend ahead of one stop.
	MaxWait int64
	// SharedSeatLimit and WheelchairFootprint encode the shared-space rule:
	// seats + WheelchairFootprint·wheelchairs ≤ SharedSeatLimit at every
	// point of every route.
	SharedSeatLimit     int64
	WheelchairFootprint int64
	// TimeLimit bounds the wall-clock search time.
	TimeLimit time.Duration
	// MaxIterations optionally bounds the improvement loop; zero means the
	// time limit alone decides. Iteration-bounded runs with a fixed Seed
	// reproduce bit-identical output.
	MaxIterations int
	// Seed fixes the PRNG so equal inputs produce equal outputs.
	Seed int64
}

// DefaultParams returns the production solver parameters.
func DefaultParams() Params {
	return Params{
		ServiceTime:         300,
		PickupTolerance:     1500,
		DeliveryLate:        1500,
		DropPenalty:         100_000_000,
		DistanceSpanCoeff:   100,
		TimeSpanCoeff:       50,
		MaxRouteDistance:    2_000_000,
		MaxWait:             43_200,
		SharedSeatLimit:     8,
		WheelchairFootprint: 2,
		TimeLimit:           30 * time.Second,
		Seed:                1,
	}
}

// Window is a closed time interval in seconds since midnight.
type Window struct {
	Start int64
	End   int64
}

// Pair links a booking's pickup node to its delivery node.
type Pair struct {
	Pickup   int
	Delivery int
}

// Problem is the fully built routing instance. Node 0 is the dummy depot;
// booking k (0-indexed) owns pickup node 2k+1 and delivery node 2k+2.
type Problem struct {
	Bookings  []model.Booking
	Locations []model.Coordinates

	// Distance is in meters, Travel in seconds; both N×N with N = 1 + 2·B.
	Distance [][]int64
	Travel   [][]int64

	Windows          []Window
	SeatDemand       []int64
	WheelchairDemand []int64
	Pairs            []Pair
	Fleet            []model.Vehicle

	// Horizon is the latest admissible time value on any route.
	Horizon int64

	Params Params
}

// Locations builds the ordered location list for the matrix provider:
// the dummy depot first, then pickup and delivery of each booking in input
// order.
func Locations(depot model.Coordinates, bookings []model.Booking) []model.Coordinates {
	locs := make([]model.Coordinates, 0, 1+2*len(bookings))
	locs = append(locs, depot)
	for _, b := range bookings {
		locs = append(locs, b.Pickup, b.Delivery)
	}
	return locs
}

// BuildProblem assembles the routing instance from validated bookings and
// the provider matrices for Locations(depot, bookings).
//
// Returns ErrEmptyProblem for zero bookings and ErrMatrixShape when either
// matrix is not square of order 1+2·B.
func BuildProblem(
	bookings []model.Booking,
	locations []model.Coordinates,
	distance, travel [][]int64,
	fleet []model.Vehicle,
	params Params,
) (*Problem, error) {
	if len(bookings) == 0 {
		return nil, ErrEmptyProblem
	}

	n := 1 + 2*len(bookings)
	if len(locations) != n {
		return nil, fmt.Errorf("%w: %d locations for %d bookings", ErrMatrixShape, len(locations), len(bookings))
	}
	if err := checkMatrix("distance", distance, n); err != nil {
		return nil, err
	}
	if err := checkMatrix("travel", travel, n); err != nil {
		return nil, err
	}

	p := &Problem{
		Bookings:         bookings,
		Locations:        locations,
		Distance:         distance,
		Travel:           travel,
		Windows:          make([]Window, n),
		SeatDemand:       make([]int64, n),
		WheelchairDemand: make([]int64, n),
		Pairs:            make([]Pair, 0, len(bookings)),
		Fleet:            fleet,
		Params:           params,
	}

	earliestPickup := int64(1<<62 - 1)
	latestDelivery := int64(0)

	for i, b := range bookings {
		pickupNode := 2*i + 1
		deliveryNode := 2*i + 2

		pt := timeutil.SecondsSinceMidnight(b.PickupTime)
		dt := timeutil.SecondsSinceMidnight(b.DeliveryTime)

		p.Windows[pickupNode] = Window{Start: pt - params.PickupTolerance, End: pt + params.PickupTolerance}
		p.Windows[deliveryNode] = Window{Start: dt, End: dt + params.DeliveryLate}

		p.SeatDemand[pickupNode] = int64(b.Passengers)
		p.SeatDemand[deliveryNode] = -int64(b.Passengers)
		p.WheelchairDemand[pickupNode] = int64(b.Wheelchairs)
		p.WheelchairDemand[deliveryNode] = -int64(b.Wheelchairs)

		p.Pairs = append(p.Pairs, Pair{Pickup: pickupNode, Delivery: deliveryNode})

		if s := p.Windows[pickupNode].Start; s < earliestPickup {
			earliestPickup = s
		}
		if e := p.Windows[deliveryNode].End; e > latestDelivery {
			latestDelivery = e
		}
	}

	// Depot window spans the busiest day with an hour of slack each side.
	depotStart := earliestPickup - 3600
	if depotStart < 0 {
		depotStart = 0
	}
	p.Windows[0] = Window{Start: depotStart, End: latestDelivery + 3600}
	p.Horizon = latestDelivery + 86_400

	return p, nil
}

func checkMatrix(name string, m [][]int64, n int) error {
	if len(m) != n {
		return fmt.Errorf("%w: %s has %d rows, want %d", ErrMatrixShape, name, len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrMatrixShape, name, i, len(row), n)
		}
	}
	return nil
}

// BookingForNode maps a node index to its booking index and stop kind.
// The depot maps to (-1, false).
func (p *Problem) BookingForNode(node int) (booking int, isPickup bool) {
	if node == 0 {
		return -1, false
	}
	return (node - 1) / 2, node%2 == 1
}

// NumNodes returns the node count including the depot.
func (p *Problem) NumNodes() int { return len(p.Locations) }
