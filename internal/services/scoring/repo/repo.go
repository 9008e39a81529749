// Package repo provides postgres access for change history and scores
package repo

import (
	"context"
	"time"

	"ycintel/internal/core/score"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	"ycintel/internal/services/scoring/domain"
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

func (r *queries) Histories(ctx context.Context, ids []int64) ([]domain.HistoryRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := store.Many(ctx, r.q, func(row store.Row) (domain.HistoryRow, error) {
		var h domain.HistoryRow
		err := row.Scan(&h.CompanyID, &h.ChangeType, &h.DetectedAt)
		return h, err
	}, `
		SELECT company_id, change_type, detected_at
		FROM company_changes
		WHERE company_id = ANY($1::bigint[])
		ORDER BY company_id, detected_at, id
	`, ids)
	if err != nil {
		return nil, perr.FromPostgres(err, "load change history")
	}
	return rows, nil
}

func (r *queries) Upsert(ctx context.Context, companyID int64, res score.Result, at time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_scores (company_id, momentum_score, stability_score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE SET
			momentum_score = EXCLUDED.momentum_score,
			stability_score = EXCLUDED.stability_score,
			updated_at = EXCLUDED.updated_at
	`, companyID, res.Momentum, res.Stability, at)
	if err != nil {
		return perr.FromPostgresf(err, "upsert score for company %d", companyID)
	}
	return nil
}

// ScorableIDs lists companies with at least one snapshot, in id order
func (r *queries) ScorableIDs(ctx context.Context) ([]int64, error) {
	ids, err := store.Many(ctx, r.q, func(row store.Row) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	}, `
		SELECT c.id
		FROM companies c
		WHERE EXISTS (SELECT 1 FROM company_snapshots s WHERE s.company_id = c.id)
		ORDER BY c.id
	`)
	if err != nil {
		return nil, perr.FromPostgres(err, "list scorable companies")
	}
	return ids, nil
}
