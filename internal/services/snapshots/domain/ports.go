package domain

import (
	"context"
	"time"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/record"
)

// StorePort is the snapshot store surface other modules call
type StorePort interface {
	// UpsertCompany inserts or refreshes the company keyed by rec.Key and returns its id
	UpsertCompany(ctx context.Context, rec record.Raw) (int64, error)

	// LatestHash returns the hash of the most recent snapshot, ok=false when none exists
	LatestHash(ctx context.Context, companyID int64) (hash string, ok bool, err error)

	// WriteIfChanged inserts a snapshot only when observed hashes differently from the latest
	WriteIfChanged(ctx context.Context, companyID int64, observed canon.Fields) (WriteResult, error)

	// LatestTwo returns up to two most recent snapshots, oldest first
	LatestTwo(ctx context.Context, companyID int64) ([]Snapshot, error)

	// DeactivateMissing marks active companies whose key is not in seen as inactive
	DeactivateMissing(ctx context.Context, seen []string) (int64, error)
}

// StorageRepo is the persistence surface behind StorePort
type StorageRepo interface {
	UpsertCompany(ctx context.Context, rec record.Raw, at time.Time) (int64, error)
	LockCompany(ctx context.Context, companyID int64) error
	LatestHash(ctx context.Context, companyID int64) (string, bool, error)
	InsertSnapshot(ctx context.Context, companyID int64, f canon.Fields, hash string, at time.Time) (int64, error)
	LatestTwo(ctx context.Context, companyID int64) ([]Snapshot, error)
	DeactivateMissing(ctx context.Context, seen []string, at time.Time) (int64, error)
}
