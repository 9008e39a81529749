// Package service implements the change detector
package service

import (
	"context"
	"time"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/score"
	"ycintel/internal/modkit/repokit"
	pstrings "ycintel/internal/platform/strings"
	ptime "ycintel/internal/platform/time"
	"ycintel/internal/services/changes/domain"
)

// Diff compares prev and latest field by field in detector order and returns one
// change per differing field, stamped at. Both inputs are compared canonically
func Diff(companyID int64, prev, latest canon.Fields, at time.Time) []domain.Change {
	p, l := canon.Canonicalize(prev), canon.Canonicalize(latest)
	pairs := []struct {
		kind     score.Kind
		old, new string
	}{
		{score.KindStage, p.Stage, l.Stage},
		{score.KindBatch, p.Batch, l.Batch},
		{score.KindWebsite, p.Website, l.Website},
		{score.KindTeamSize, p.TeamSize, l.TeamSize},
		{score.KindTag, canon.TagsText(p.Tags), canon.TagsText(l.Tags)},
		{score.KindDescription, p.Description, l.Description},
		{score.KindLocation, p.Location, l.Location},
	}
	var out []domain.Change
	for _, x := range pairs {
		if x.old == x.new {
			continue
		}
		out = append(out, domain.Change{
			CompanyID:  companyID,
			Kind:       x.kind,
			Type:       x.kind.String(),
			Old:        pstrings.Ptr(x.old),
			New:        pstrings.Ptr(x.new),
			DetectedAt: at,
		})
	}
	return out
}

// Binder binds the detector to a querier, typically the chunk transaction
type Binder struct {
	snaps repokit.Binder[domain.SnapshotReader]
	repos repokit.Binder[domain.StorageRepo]
	clock ptime.Clock
}

// NewBinder returns a detector binder
func NewBinder(snaps repokit.Binder[domain.SnapshotReader], repos repokit.Binder[domain.StorageRepo], clock ptime.Clock) Binder {
	if snaps == nil || repos == nil {
		panic("changes.Binder requires non nil snapshot and repo binders")
	}
	return Binder{snaps: snaps, repos: repos, clock: ptime.OrSystem(clock)}
}

// Bind implements repokit.Binder
func (b Binder) Bind(q repokit.Queryer) domain.DetectorPort {
	return &Detector{snaps: b.snaps.Bind(q), repo: b.repos.Bind(q), clock: b.clock}
}

// Detector implements domain.DetectorPort on one querier
type Detector struct {
	snaps domain.SnapshotReader
	repo  domain.StorageRepo
	clock ptime.Clock
}

var _ domain.DetectorPort = (*Detector)(nil)

// Detect diffs the latest snapshot against the one before it. Fewer than two
// snapshots yields no changes. Each change is inserted as it is produced
func (d *Detector) Detect(ctx context.Context, companyID int64) ([]domain.Change, error) {
	two, err := d.snaps.LatestTwo(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(two) < 2 {
		return nil, nil
	}
	changes := Diff(companyID, two[0].Fields, two[1].Fields, d.clock.Now())
	for i := range changes {
		id, err := d.repo.Insert(ctx, changes[i])
		if err != nil {
			return nil, err
		}
		changes[i].ID = id
	}
	return changes, nil
}
