package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// SolveRun is one row of the solve history.
type SolveRun struct {
	ID                int64
	RequestedBookings int
	ServedBookings    int
	DroppedBookings   int
	Duration          time.Duration
	Result            model.OptimizeResult
	CreatedAt         time.Time
}

// SolveRepository appends solve runs to the `solve_runs` table and serves
// the latest one. The table is append-only; the file store remains the
// source for GET, this history exists for dispatcher reporting.
type SolveRepository struct {
	pool *pgxpool.Pool
}

// NewSolveRepository creates a new repository.
func NewSolveRepository(pool *pgxpool.Pool) *SolveRepository {
	return &SolveRepository{pool: pool}
}

// Record inserts one solve run.
func (r *SolveRepository) Record(ctx context.Context, run SolveRun) error {
	raw, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("solve run: marshal result: %w", err)
	}

	query := `
		INSERT INTO solve_runs (
			requested_bookings, served_bookings, dropped_bookings,
			duration_ms, result
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = r.pool.QueryRow(ctx, query,
		run.RequestedBookings,
		run.ServedBookings,
		run.DroppedBookings,
		run.Duration.Milliseconds(),
		raw,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record solve run: %w", err)
	}
	return nil
}

// Latest fetches the most recent solve run, or (nil, nil) when the
// history is empty.
func (r *SolveRepository) Latest(ctx context.Context) (*SolveRun, error) {
	query := `
		SELECT id, requested_bookings, served_bookings, dropped_bookings,
		       duration_ms, result, created_at
		FROM solve_runs
		ORDER BY created_at DESC
		LIMIT 1
	`
	run := &SolveRun{}
	var durationMs int64
	var raw []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&run.ID, &run.RequestedBookings, &run.ServedBookings, &run.DroppedBookings,
		&durationMs, &raw, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest solve run: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if err := json.Unmarshal(raw, &run.Result); err != nil {
		return nil, fmt.Errorf("latest solve run: unmarshal result: %w", err)
	}
	return run, nil
}
