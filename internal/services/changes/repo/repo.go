// Package repo persists change events to postgres and mirrors them to clickhouse
package repo

import (
	"context"

	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	"ycintel/internal/services/changes/domain"
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

func (r *queries) Insert(ctx context.Context, c domain.Change) (int64, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO company_changes (company_id, change_type, old_value, new_value, detected_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.CompanyID, c.Kind.String(), c.Old, c.New, c.DetectedAt)
	if err != nil {
		return 0, perr.FromPostgresf(err, "insert %s for company %d", c.Kind, c.CompanyID)
	}
	return id, nil
}
