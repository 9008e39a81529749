// Package repo provides postgres access for scrape_runs
package repo

import (
	"context"
	"time"

	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	pstrings "ycintel/internal/platform/strings"
	"ycintel/internal/services/runs/domain"

	"github.com/google/uuid"
)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

const selectRun = `
	SELECT id, started_at, ended_at, status, total, new, updated, unchanged,
		failed, scored, avg_ms, error
	FROM scrape_runs
`

func scanRun(row store.Row) (domain.Run, error) {
	var r domain.Run
	var status string
	err := row.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &status, &r.Total, &r.New, &r.Updated,
		&r.Unchanged, &r.Failed, &r.Scored, &r.AvgMS, &r.Error)
	r.Status = domain.Status(status)
	return r, err
}

func (r *queries) Insert(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := store.ExecOne(ctx, r.q, `
		INSERT INTO scrape_runs (id, started_at, status)
		VALUES ($1, $2, 'running')
	`, id, at); err != nil {
		return perr.FromPostgresf(err, "start run %s", id)
	}
	return nil
}

func (r *queries) Finish(ctx context.Context, id uuid.UUID, at time.Time, t domain.Totals) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE scrape_runs SET
			ended_at = $2, status = $3, total = $4, new = $5, updated = $6,
			unchanged = $7, failed = $8, scored = $9, avg_ms = $10, error = $11
		WHERE id = $1 AND ended_at IS NULL
	`, id, at, string(t.Status), t.Total, t.New, t.Updated, t.Unchanged, t.Failed, t.Scored,
		t.AvgMS, pstrings.Ptr(t.Error))
	if err != nil {
		return false, perr.FromPostgresf(err, "finish run %s", id)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) Latest(ctx context.Context, n int) ([]domain.Run, error) {
	runs, err := store.Many(ctx, r.q, scanRun, selectRun+`
		ORDER BY started_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, perr.FromPostgres(err, "list runs")
	}
	return runs, nil
}

func (r *queries) Get(ctx context.Context, id uuid.UUID) (domain.Run, error) {
	run, err := store.One(ctx, r.q, scanRun, selectRun+`WHERE id = $1`, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Run{}, perr.NotFoundf("run %s not found", id)
		}
		return domain.Run{}, perr.FromPostgresf(err, "get run %s", id)
	}
	return run, nil
}
