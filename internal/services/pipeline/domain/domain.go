// Package domain defines the pipeline orchestrator ports
package domain

import (
	"context"

	"ycintel/internal/core/record"
	rundom "ycintel/internal/services/runs/domain"

	"github.com/google/uuid"
)

// Supplier yields the raw records of one run. Bulk sources download once in List
type Supplier interface {
	// List returns every key the source currently knows
	List(ctx context.Context) ([]string, error)
	// Fetch returns the raw record for key
	Fetch(ctx context.Context, key string) (record.Raw, error)
}

// Summary describes one finished execution
type Summary struct {
	RunID       uuid.UUID     `json:"run_id"`
	Totals      rundom.Totals `json:"totals"`
	Deactivated int64         `json:"deactivated"`
}

// RunnerPort drives executions
type RunnerPort interface {
	// Run performs one full ingest, diff and score pass
	Run(ctx context.Context) (Summary, error)
	// ScoreOnly re-runs the scoring batch under its own run row
	ScoreOnly(ctx context.Context) (Summary, error)
}

// FetchAll lists then fetches every record, stopping at the first failure
func FetchAll(ctx context.Context, s Supplier) ([]record.Raw, error) {
	keys, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]record.Raw, 0, len(keys))
	for _, k := range keys {
		r, err := s.Fetch(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
