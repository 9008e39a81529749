// Package service implements the content-addressed snapshot store
package service

import (
	"context"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/record"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	ptime "ycintel/internal/platform/time"
	"ycintel/internal/services/snapshots/domain"
)

// Binder binds the store to a querier, typically a chunk transaction
type Binder struct {
	repos repokit.Binder[domain.StorageRepo]
	clock ptime.Clock
}

// NewBinder returns a Binder over the repo binder and clock
func NewBinder(repos repokit.Binder[domain.StorageRepo], clock ptime.Clock) Binder {
	if repos == nil {
		panic("snapshots.Binder requires a non nil repo binder")
	}
	return Binder{repos: repos, clock: ptime.OrSystem(clock)}
}

// Bind implements repokit.Binder
func (b Binder) Bind(q repokit.Queryer) domain.StorePort {
	return &Svc{q: repokit.RequireQueryer(q), repos: b.repos, clock: b.clock}
}

// Svc implements domain.StorePort on one querier
type Svc struct {
	q     repokit.Queryer
	repos repokit.Binder[domain.StorageRepo]
	clock ptime.Clock
}

var _ domain.StorePort = (*Svc)(nil)

// UpsertCompany inserts or refreshes the company row, stamping last_seen with the clock
func (s *Svc) UpsertCompany(ctx context.Context, rec record.Raw) (int64, error) {
	if rec.Key == "" {
		return 0, perr.InvalidArgf("company key is required")
	}
	return s.repos.Bind(s.q).UpsertCompany(ctx, rec, s.clock.Now())
}

// LatestHash returns the latest snapshot hash for companyID
func (s *Svc) LatestHash(ctx context.Context, companyID int64) (string, bool, error) {
	return s.repos.Bind(s.q).LatestHash(ctx, companyID)
}

// WriteIfChanged canonicalizes observed, hashes it and inserts a snapshot unless
// the latest snapshot carries the same hash. The compare and insert run under a
// per-company advisory lock inside a savepoint so concurrent writers cannot both insert
func (s *Svc) WriteIfChanged(ctx context.Context, companyID int64, observed canon.Fields) (domain.WriteResult, error) {
	fields := canon.Canonicalize(observed)
	hash := canon.Hash(fields)

	var out domain.WriteResult
	err := repokit.Savepoint(ctx, s.q, func(q repokit.Queryer) error {
		r := s.repos.Bind(q)
		if err := r.LockCompany(ctx, companyID); err != nil {
			return err
		}
		latest, ok, err := r.LatestHash(ctx, companyID)
		if err != nil {
			return err
		}
		if ok && latest == hash {
			return nil
		}
		at := s.clock.Now()
		id, err := r.InsertSnapshot(ctx, companyID, fields, hash, at)
		if err != nil {
			return err
		}
		out = domain.WriteResult{
			Written: true,
			First:   !ok,
			Snapshot: domain.Snapshot{
				ID:         id,
				CompanyID:  companyID,
				Fields:     fields,
				Hash:       hash,
				CapturedAt: at,
			},
		}
		return nil
	})
	if err != nil {
		if perr.CodeOf(err) == perr.ErrorCodeUnknown {
			err = perr.Wrap(err, perr.ErrorCodeDB, "write snapshot")
		}
		return domain.WriteResult{}, err
	}
	return out, nil
}

// LatestTwo returns up to two latest snapshots, oldest first
func (s *Svc) LatestTwo(ctx context.Context, companyID int64) ([]domain.Snapshot, error) {
	return s.repos.Bind(s.q).LatestTwo(ctx, companyID)
}

// DeactivateMissing flips active=false for companies absent from seen
func (s *Svc) DeactivateMissing(ctx context.Context, seen []string) (int64, error) {
	return s.repos.Bind(s.q).DeactivateMissing(ctx, seen, s.clock.Now())
}
