package optimizer

import "errors"

// Errors returned by problem building and solving.
var (
	// ErrEmptyProblem is returned when a solve is requested with zero
	// bookings. Callers treat it as "nothing to do", not a failure.
	ErrEmptyProblem = errors.New("optimizer: no bookings to solve")

	// ErrMatrixShape is returned when a provider matrix is not square or
	// does not match the location count. This is a fatal internal error —
	// the adapter contract guarantees shape.
	ErrMatrixShape = errors.New("optimizer: matrix shape does not match location count")

	// ErrNoSolution is returned when the search exhausts its time limit
	// without a single feasible assignment.
	ErrNoSolution = errors.New("optimizer: no feasible assignment found")
)
