package optimizer

import (
	"log"
	"math"
	"time"

	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/timeutil"
)

// Solve runs the two-phase search: a greedy cheapest-insertion construction
// followed by a guided local search that repeatedly ruins part of the
// current solution and recreates it under penalty-augmented costs, keeping
// the best true-cost solution seen. The search stops at the wall-clock
// limit (or MaxIterations, when set) and never returns an infeasible
// assignment.
func Solve(p *Problem) (*Solution, error) {
	started := time.Now()
	deadline := started.Add(p.Params.TimeLimit)

	current := construct(p)
	best := current.clone()
	bestCost := p.cost(best)
	if bestCost == math.MaxInt64 {
		return nil, ErrNoSolution
	}

	s := newSearcher(p, current)
	sinceImprove := 0

	iterations := 0
	for time.Now().Before(deadline) {
		if p.Params.MaxIterations > 0 && iterations >= p.Params.MaxIterations {
			break
		}
		iterations++

		cand := current.clone()
		s.ruin(cand, 1+s.rng.Intn(3))
		s.recreate(cand)

		if s.augCost(cand) <= s.augCost(current) {
			current = cand
		}
		if c := p.cost(cand); c < bestCost {
			best = cand.clone()
			bestCost = c
			sinceImprove = 0
		} else {
			sinceImprove++
		}

		// A stretch without improvement means the neighborhood is
		// exhausted under the current penalties; diversify.
		if sinceImprove >= 25 {
			s.penalize(current)
			sinceImprove = 0
		}
	}

	sol := newSolution(p, best)
	log.Printf("[solver] %d bookings, %d dropped, cost=%d, %d iterations in %s (window %s–%s)",
		len(p.Bookings), best.droppedCount(), sol.Cost, iterations,
		time.Since(started).Round(time.Millisecond),
		timeutil.ToHHMM(p.Windows[0].Start), timeutil.ToHHMM(p.Windows[0].End))
	return sol, nil
}
