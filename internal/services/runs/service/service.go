// Package service implements the run tracker
package service

import (
	"context"
	"time"

	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/logger"
	ptime "ycintel/internal/platform/time"
	"ycintel/internal/services/runs/domain"

	"github.com/google/uuid"
)

// Service implements domain.TrackerPort. Each call is its own statement on
// the pool so bookkeeping never shares fate with a chunk transaction
type Service struct {
	db    repokit.Queryer
	repos repokit.Binder[domain.StorageRepo]
	clock ptime.Clock
	newID func() uuid.UUID
}

var _ domain.TrackerPort = (*Service)(nil)

// New constructs the run tracker
func New(db repokit.Queryer, repos repokit.Binder[domain.StorageRepo], clock ptime.Clock) *Service {
	if repos == nil {
		panic("runs.Service requires a non nil repo binder")
	}
	return &Service{db: repokit.RequireQueryer(db), repos: repos, clock: ptime.OrSystem(clock), newID: uuid.New}
}

// Start inserts a running row stamped with the clock
func (s *Service) Start(ctx context.Context) (uuid.UUID, error) {
	id := s.newID()
	if err := s.repos.Bind(s.db).Insert(ctx, id, s.clock.Now()); err != nil {
		return uuid.Nil, err
	}
	logger.C(ctx).Info().Str("run_id", id.String()).Msg("run started")
	return id, nil
}

// Finish records the terminal state of id exactly once
func (s *Service) Finish(ctx context.Context, id uuid.UUID, t domain.Totals) error {
	if !t.Status.Terminal() {
		return perr.WithField(perr.InvalidArgf("run cannot finish as %q", t.Status), "status")
	}
	r := s.repos.Bind(s.db)
	ok, err := r.Finish(ctx, id, s.clock.Now(), t)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// nothing matched, tell unknown apart from already finished
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return perr.Conflictf("run %s already finished", id)
}

// Latest returns up to n runs, newest first. n is clamped to [1,500]
func (s *Service) Latest(ctx context.Context, n int) ([]domain.Run, error) {
	n = max(1, min(n, 500))
	return s.repos.Bind(s.db).Latest(ctx, n)
}

// Get returns one run
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Run, error) {
	return s.repos.Bind(s.db).Get(ctx, id)
}

// AvgMS is the mean per entity latency, zero when nothing was processed
func AvgMS(total time.Duration, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(total.Microseconds()) / 1000 / float64(n)
}
