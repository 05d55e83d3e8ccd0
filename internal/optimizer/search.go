package optimizer

import (
	"math/rand"
)

// searcher carries the guided-local-search state: per-arc penalty counters
// and the scaling factor that mixes them into the insertion costs. Arcs
// that keep appearing in local optima accumulate penalties, pushing the
// search toward unexplored route shapes while the true objective still
// decides which solution is kept as best.
type searcher struct {
	p         *Problem
	rng       *rand.Rand
	penalties map[[2]int]int64
	lambda    int64
}

func newSearcher(p *Problem, initial *assignment) *searcher {
	s := &searcher{
		p:         p,
		rng:       rand.New(rand.NewSource(p.Params.Seed)),
		penalties: make(map[[2]int]int64),
	}

	// Scale penalties relative to the average arc length of the first
	// solution so one penalty unit is a meaningful fraction of a leg.
	var total, arcs int64
	for v := range p.Fleet {
		if n := len(initial.routes[v]); n > 0 {
			total += routeArcSum(initial.routes[v], func(from, to int) int64 { return p.Distance[from][to] })
			arcs += int64(n) + 1
		}
	}
	if arcs > 0 {
		s.lambda = total / arcs / 8
	}
	if s.lambda < 1 {
		s.lambda = 1
	}
	return s
}

// augArc is the penalty-augmented arc weight used while reinserting.
func (s *searcher) augArc(from, to int) int64 {
	return s.p.Distance[from][to] + s.lambda*s.penalties[[2]int{from, to}]
}

// augCost scores an assignment for move acceptance: augmented route sums
// plus the drop penalty. The span terms are left to the true objective.
func (s *searcher) augCost(a *assignment) int64 {
	var total int64
	for v := range s.p.Fleet {
		total += routeArcSum(a.routes[v], s.augArc)
	}
	return total + s.p.Params.DropPenalty*a.droppedCount()
}

// ruin removes up to q randomly chosen served bookings. A removal that
// would leave its route infeasible (a later stop now waits longer than the
// slack allows) is rolled back.
func (s *searcher) ruin(a *assignment, q int) {
	servedIdx := make([]int, 0, len(a.served))
	for b, served := range a.served {
		if served {
			servedIdx = append(servedIdx, b)
		}
	}
	if len(servedIdx) == 0 {
		return
	}
	s.rng.Shuffle(len(servedIdx), func(i, j int) {
		servedIdx[i], servedIdx[j] = servedIdx[j], servedIdx[i]
	})
	if q > len(servedIdx) {
		q = len(servedIdx)
	}

	for _, b := range servedIdx[:q] {
		v := s.vehicleOf(a, b)
		if v < 0 {
			continue
		}
		before := append([]int(nil), a.routes[v]...)
		a.remove(s.p, b)
		if _, ok := s.p.evaluateRoute(v, a.routes[v]); !ok {
			a.routes[v] = before
			a.served[b] = true
		}
	}
}

func (s *searcher) vehicleOf(a *assignment, booking int) int {
	pickup := s.p.Pairs[booking].Pickup
	for v, route := range a.routes {
		for _, n := range route {
			if n == pickup {
				return v
			}
		}
	}
	return -1
}

// recreate reinserts every unserved booking (just-removed and previously
// dropped alike) at its cheapest feasible augmented position. Bookings that
// still fit nowhere stay dropped.
func (s *searcher) recreate(a *assignment) {
	pending := make([]int, 0, len(a.served))
	for b, served := range a.served {
		if !served {
			pending = append(pending, b)
		}
	}
	s.rng.Shuffle(len(pending), func(i, j int) {
		pending[i], pending[j] = pending[j], pending[i]
	})

	for _, b := range pending {
		if ins := s.p.bestPairInsertion(a, b, s.augArc); ins.ok {
			a.apply(s.p, b, ins)
		}
	}
}

// penalize bumps the penalty of the most "useful" arcs of the current
// solution: those with the highest distance relative to how often they have
// been penalized already.
func (s *searcher) penalize(a *assignment) {
	var (
		bestUtil int64 = -1
		targets  [][2]int
	)
	for v := range s.p.Fleet {
		route := a.routes[v]
		if len(route) == 0 {
			continue
		}
		prev := 0
		walk := append(append([]int(nil), route...), 0)
		for _, n := range walk {
			key := [2]int{prev, n}
			util := s.p.Distance[prev][n] / (1 + s.penalties[key])
			switch {
			case util > bestUtil:
				bestUtil = util
				targets = targets[:0]
				targets = append(targets, key)
			case util == bestUtil:
				targets = append(targets, key)
			}
			prev = n
		}
	}
	for _, key := range targets {
		s.penalties[key]++
	}
}
