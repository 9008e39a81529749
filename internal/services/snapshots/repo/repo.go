// Package repo provides postgres access for companies and snapshots
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/record"
	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	pstrings "ycintel/internal/platform/strings"
	"ycintel/internal/services/snapshots/domain"

	"github.com/jackc/pgx/v5"
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

func (r *queries) UpsertCompany(ctx context.Context, rec record.Raw, at time.Time) (int64, error) {
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO companies (key, name, website, active, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			website = EXCLUDED.website,
			active = EXCLUDED.active,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING id
	`, rec.Key, rec.Name, pstrings.Ptr(canon.Text(rec.Website)), rec.Active, at)
	if err != nil {
		return 0, perr.FromPostgresf(err, "upsert company %q", rec.Key)
	}
	return id, nil
}

// LockCompany serialises writers on one company until the surrounding tx ends
func (r *queries) LockCompany(ctx context.Context, companyID int64) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, companyID); err != nil {
		return perr.FromPostgresf(err, "lock company %d", companyID)
	}
	return nil
}

func (r *queries) LatestHash(ctx context.Context, companyID int64) (string, bool, error) {
	h, err := store.Scalar[string](ctx, r.q, `
		SELECT snapshot_hash
		FROM company_snapshots
		WHERE company_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.FromPostgresf(err, "latest hash for company %d", companyID)
	}
	return h, true, nil
}

func (r *queries) InsertSnapshot(ctx context.Context, companyID int64, f canon.Fields, hash string, at time.Time) (int64, error) {
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeJSON, "encode tags")
	}
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO company_snapshots
			(company_id, batch, stage, website, location, description, team_size, tags, snapshot_hash, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10)
		RETURNING id
	`,
		companyID,
		pstrings.Ptr(f.Batch), pstrings.Ptr(f.Stage), pstrings.Ptr(f.Website),
		pstrings.Ptr(f.Location), pstrings.Ptr(f.Description), pstrings.Ptr(f.TeamSize),
		string(tags), hash, at,
	)
	if err != nil {
		return 0, perr.FromPostgresf(err, "insert snapshot for company %d", companyID)
	}
	return id, nil
}

func (r *queries) LatestTwo(ctx context.Context, companyID int64) ([]domain.Snapshot, error) {
	// newest two, flipped so the caller reads previous then latest
	out, err := store.Many(ctx, r.q, scanSnapshot, `
		SELECT id, company_id, batch, stage, website, location, description, team_size,
		       tags::text, snapshot_hash, captured_at
		FROM (
			SELECT *
			FROM company_snapshots
			WHERE company_id = $1
			ORDER BY captured_at DESC, id DESC
			LIMIT 2
		) s
		ORDER BY captured_at ASC, id ASC
	`, companyID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "latest snapshots for company %d", companyID)
	}
	return out, nil
}

func (r *queries) DeactivateMissing(ctx context.Context, seen []string, at time.Time) (int64, error) {
	if seen == nil {
		seen = []string{}
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE companies
		SET active = FALSE, last_seen_at = GREATEST(last_seen_at, $2)
		WHERE active AND NOT (key = ANY($1::text[]))
	`, seen, at)
	if err != nil {
		return 0, perr.FromPostgres(err, "deactivate missing companies")
	}
	return tag.RowsAffected(), nil
}

func scanSnapshot(row store.Row) (domain.Snapshot, error) {
	var (
		s                                                 domain.Snapshot
		batch, stage, website, location, desc, team, tags *string
	)
	if err := row.Scan(&s.ID, &s.CompanyID, &batch, &stage, &website, &location, &desc, &team,
		&tags, &s.Hash, &s.CapturedAt); err != nil {
		return s, err
	}
	s.Fields = canon.Fields{
		Batch:       pstrings.Deref(batch),
		Stage:       pstrings.Deref(stage),
		Website:     pstrings.Deref(website),
		Location:    pstrings.Deref(location),
		Description: pstrings.Deref(desc),
		TeamSize:    pstrings.Deref(team),
		Tags:        []string{},
	}
	if t := pstrings.Deref(tags); t != "" {
		if err := json.Unmarshal([]byte(t), &s.Fields.Tags); err != nil {
			return s, perr.Wrap(err, perr.ErrorCodeJSON, "decode snapshot tags")
		}
	}
	return s, nil
}
