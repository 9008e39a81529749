package domain

import (
	"context"
	"time"

	"ycintel/internal/core/score"
)

// ScorePort is the score engine surface
type ScorePort interface {
	// Recompute loads the full history of one company, computes and upserts its score
	Recompute(ctx context.Context, companyID int64, now time.Time) (score.Result, error)

	// RecomputeAll scores ids in chunked transactions across the worker pool.
	// Entities that fail are counted and keep their prior score
	RecomputeAll(ctx context.Context, ids []int64, now time.Time) (BatchResult, error)

	// RecomputeScorable runs RecomputeAll over every company with at least one snapshot
	RecomputeScorable(ctx context.Context, now time.Time) (BatchResult, error)
}

// StorageRepo is the persistence surface behind ScorePort
type StorageRepo interface {
	// Histories returns the change rows of ids ordered by company then detection time
	Histories(ctx context.Context, ids []int64) ([]HistoryRow, error)
	Upsert(ctx context.Context, companyID int64, r score.Result, at time.Time) error
	ScorableIDs(ctx context.Context) ([]int64, error)
}
