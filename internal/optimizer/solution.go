package optimizer

import (
	"math"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// assignment is a complete solver state: one node sequence per vehicle
// (depot excluded at both ends) plus the served flag per booking.
type assignment struct {
	routes [][]int
	served []bool
}

func newAssignment(p *Problem) *assignment {
	return &assignment{
		routes: make([][]int, len(p.Fleet)),
		served: make([]bool, len(p.Bookings)),
	}
}

func (a *assignment) clone() *assignment {
	c := &assignment{
		routes: make([][]int, len(a.routes)),
		served: make([]bool, len(a.served)),
	}
	for v, r := range a.routes {
		c.routes[v] = append([]int(nil), r...)
	}
	copy(c.served, a.served)
	return c
}

func (a *assignment) droppedCount() int64 {
	var n int64
	for _, s := range a.served {
		if !s {
			n++
		}
	}
	return n
}

// cost computes the full objective of a feasible assignment:
//
//	Σ route distance
//	+ DistanceSpanCoeff · max route distance
//	+ TimeSpanCoeff · (latest depot return − depot window start)
//	+ DropPenalty · dropped bookings
//
// The span terms mirror a per-dimension global span cost: distance cumuls
// start at zero and time cumuls start at the depot window, so each span
// reduces to the fleet maximum. Returns math.MaxInt64 when any route is
// infeasible; the search never accepts such a state.
func (p *Problem) cost(a *assignment) int64 {
	depotStart := p.Windows[0].Start

	var total, maxDist, maxEnd int64
	maxEnd = depotStart
	for v, nodes := range a.routes {
		sched, ok := p.evaluateRoute(v, nodes)
		if !ok {
			return math.MaxInt64
		}
		total += sched.Distance
		if sched.Distance > maxDist {
			maxDist = sched.Distance
		}
		if sched.End > maxEnd {
			maxEnd = sched.End
		}
	}

	total += p.Params.DistanceSpanCoeff * maxDist
	total += p.Params.TimeSpanCoeff * (maxEnd - depotStart)
	total += p.Params.DropPenalty * a.droppedCount()
	return total
}

// Solution is the immutable result of a solve, ready for extraction.
type Solution struct {
	problem    *Problem
	assignment *assignment
	schedules  []routeSchedule
	Cost       int64
}

func newSolution(p *Problem, a *assignment) *Solution {
	s := &Solution{
		problem:    p,
		assignment: a,
		schedules:  make([]routeSchedule, len(p.Fleet)),
		Cost:       p.cost(a),
	}
	for v, nodes := range a.routes {
		sched, _ := p.evaluateRoute(v, nodes)
		s.schedules[v] = sched
	}
	return s
}

// Extract projects the solution into the output schema: clusters in
// ascending vehicle id (idle vehicles omitted), paths in visit order with
// depot stops at both ends, and dropped bookings in ascending input index.
func (s *Solution) Extract() model.OptimizeResult {
	p := s.problem

	result := model.OptimizeResult{
		Clusters:        []model.Cluster{},
		DroppedBookings: []model.Booking{},
	}

	for v := range p.Fleet {
		nodes := s.assignment.routes[v]
		if len(nodes) == 0 {
			continue
		}
		sched := s.schedules[v]

		cluster := model.Cluster{
			VehicleID: p.Fleet[v].ID,
			Path:      make([]model.Stop, 0, len(nodes)+2),
		}
		cluster.Path = append(cluster.Path, model.Stop{NodeIndex: 0, ArrivalTime: sched.Start})

		// Served bookings are listed in order of first visit (the pickup).
		times := make(map[int]*model.ServedBooking)
		var order []int
		for i, n := range nodes {
			bIdx, isPickup := p.BookingForNode(n)
			booking := p.Bookings[bIdx]
			arrival := sched.Arrivals[i]

			stop := model.Stop{
				NodeIndex:   n,
				ArrivalTime: arrival,
				BookingID:   booking.ID,
			}
			entry := times[bIdx]
			if entry == nil {
				entry = &model.ServedBooking{Booking: booking}
				times[bIdx] = entry
				order = append(order, bIdx)
			}
			if isPickup {
				stop.Type = model.StopPickup
				entry.PickupTime = arrival
			} else {
				stop.Type = model.StopDropoff
				entry.DropoffTime = arrival
			}
			cluster.Path = append(cluster.Path, stop)
		}
		for _, bIdx := range order {
			cluster.Bookings = append(cluster.Bookings, *times[bIdx])
		}

		cluster.Path = append(cluster.Path, model.Stop{NodeIndex: 0, ArrivalTime: sched.End})
		result.Clusters = append(result.Clusters, cluster)
	}

	for i, served := range s.assignment.served {
		if !served {
			result.DroppedBookings = append(result.DroppedBookings, p.Bookings[i])
		}
	}

	return result
}
