// Package domain holds change event types and the change detector ports
package domain

import (
	"context"
	"time"

	"ycintel/internal/core/score"
	snapdom "ycintel/internal/services/snapshots/domain"
)

// Change is one field-level difference between consecutive snapshots.
// Old and New are canonical text, nil when the field was absent
type Change struct {
	ID         int64      `json:"id"`
	CompanyID  int64      `json:"company_id"`
	Kind       score.Kind `json:"-"`
	Type       string     `json:"change_type"`
	Old        *string    `json:"old_value"`
	New        *string    `json:"new_value"`
	DetectedAt time.Time  `json:"detected_at"`
}

// DetectorPort is what the pipeline calls after a snapshot was written
type DetectorPort interface {
	// Detect diffs the two latest snapshots and appends one change per differing field
	Detect(ctx context.Context, companyID int64) ([]Change, error)
}

// SnapshotReader is the slice of the snapshot store the detector needs
type SnapshotReader interface {
	LatestTwo(ctx context.Context, companyID int64) ([]snapdom.Snapshot, error)
}

// StorageRepo persists change events. Rows are never updated or deleted
type StorageRepo interface {
	Insert(ctx context.Context, c Change) (int64, error)
}

// Mirror copies committed changes to a secondary store
type Mirror interface {
	Mirror(ctx context.Context, cs []Change) error
}
