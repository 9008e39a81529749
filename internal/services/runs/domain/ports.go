package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TrackerPort records run lifecycles
type TrackerPort interface {
	// Start inserts a running row and returns its id
	Start(ctx context.Context) (uuid.UUID, error)

	// Finish records end time, status and every counter in one write.
	// Unknown runs are NotFound, already finished runs are Conflict
	Finish(ctx context.Context, id uuid.UUID, t Totals) error

	// Latest returns up to n runs, newest first
	Latest(ctx context.Context, n int) ([]Run, error)

	// Get returns one run
	Get(ctx context.Context, id uuid.UUID) (Run, error)
}

// StorageRepo is the persistence surface behind TrackerPort
type StorageRepo interface {
	Insert(ctx context.Context, id uuid.UUID, at time.Time) error
	// Finish updates an unfinished run and reports whether a row matched
	Finish(ctx context.Context, id uuid.UUID, at time.Time, t Totals) (bool, error)
	Latest(ctx context.Context, n int) ([]Run, error)
	Get(ctx context.Context, id uuid.UUID) (Run, error)
}
