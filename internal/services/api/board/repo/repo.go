// Package repo provides read only postgres access for the board
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	"ycintel/internal/services/api/board/domain"
)

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for domain.Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

// orderBy is the only source of ORDER BY text, never user input
var orderBy = map[string]string{
	"momentum":  "s.momentum_score DESC, s.stability_score DESC, c.id",
	"stability": "s.stability_score DESC, s.momentum_score DESC, c.id",
}

func (r *queries) Leaderboard(ctx context.Context, by string, limit int) ([]domain.LeaderRow, error) {
	order, ok := orderBy[by]
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("unknown ranking %q", by), "by")
	}
	sql := `
		SELECT c.key, c.name, c.website, ls.batch, ls.stage,
			s.momentum_score, s.stability_score, s.updated_at
		FROM company_scores s
		JOIN companies c ON c.id = s.company_id
		LEFT JOIN LATERAL (
			SELECT batch, stage FROM company_snapshots
			WHERE company_id = c.id
			ORDER BY captured_at DESC, id DESC
			LIMIT 1
		) ls ON TRUE
		WHERE c.active
		ORDER BY ` + order + `
		LIMIT $1`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.LeaderRow, error) {
		var lr domain.LeaderRow
		err := row.Scan(&lr.Key, &lr.Name, &lr.Website, &lr.Batch, &lr.Stage,
			&lr.Momentum, &lr.Stability, &lr.UpdatedAt)
		return lr, err
	}, sql, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "leaderboard by %s", by)
	}
	return out, nil
}

// latestActive selects the newest snapshot of every active company
const latestActive = `
	SELECT DISTINCT ON (cs.company_id) cs.company_id, cs.location, cs.tags
	FROM company_snapshots cs
	JOIN companies c ON c.id = cs.company_id
	WHERE c.active
	ORDER BY cs.company_id, cs.captured_at DESC, cs.id DESC
`

func scanCount(row store.Row) (domain.Count, error) {
	var c domain.Count
	err := row.Scan(&c.Value, &c.Count)
	return c, err
}

func (r *queries) TopTags(ctx context.Context, limit int) ([]domain.Count, error) {
	out, err := store.Many(ctx, r.q, scanCount, `
		WITH latest AS (`+latestActive+`)
		SELECT t.tag, count(*) AS n
		FROM latest, jsonb_array_elements_text(latest.tags) AS t(tag)
		GROUP BY t.tag
		ORDER BY n DESC, t.tag
		LIMIT $1`, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "top tags")
	}
	return out, nil
}

func (r *queries) TopLocations(ctx context.Context, limit int) ([]domain.Count, error) {
	out, err := store.Many(ctx, r.q, scanCount, `
		WITH latest AS (`+latestActive+`)
		SELECT location, count(*) AS n
		FROM latest
		WHERE location IS NOT NULL
		GROUP BY location
		ORDER BY n DESC, location
		LIMIT $1`, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "top locations")
	}
	return out, nil
}

func (r *queries) ChangeTypes(ctx context.Context) ([]domain.Count, error) {
	out, err := store.Many(ctx, r.q, scanCount, `
		SELECT change_type, count(*) AS n
		FROM company_changes
		GROUP BY change_type
		ORDER BY n DESC, change_type`)
	if err != nil {
		return nil, perr.FromPostgresf(err, "change types")
	}
	return out, nil
}

func (r *queries) RecentlyChanged(ctx context.Context, limit int) ([]domain.RecentChange, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.RecentChange, error) {
		var rc domain.RecentChange
		err := row.Scan(&rc.Key, &rc.Name, &rc.LastChange)
		return rc, err
	}, `
		SELECT c.key, c.name, max(ch.detected_at) AS last_change
		FROM company_changes ch
		JOIN companies c ON c.id = ch.company_id
		GROUP BY c.id, c.key, c.name
		ORDER BY last_change DESC, c.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "recently changed")
	}
	return out, nil
}

// searchOrder is the only source of the search ORDER BY text
var searchOrder = map[string]string{
	"relevance": "h.rank DESC, s.momentum_score DESC NULLS LAST, h.key",
	"momentum":  "s.momentum_score DESC NULLS LAST, h.rank DESC, h.key",
}

// Search matches plainto_tsquery(q) against the company name (weight A) and the
// tags, description, location and stage of the newest snapshot (B..D)
func (r *queries) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchHit, error) {
	order, ok := searchOrder[q.Sort]
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("unknown sort %q", q.Sort), "sort")
	}
	sql := `
		WITH latest AS (
			SELECT DISTINCT ON (company_id) company_id, batch, stage, search_vector
			FROM company_snapshots
			ORDER BY company_id, captured_at DESC, id DESC
		), hits AS (
			SELECT c.id, c.key, c.name, c.website, c.active, l.batch, l.stage,
				ts_rank(setweight(c.name_vector, 'A') || l.search_vector, tq) AS rank
			FROM companies c
			JOIN latest l ON l.company_id = c.id
			CROSS JOIN plainto_tsquery('english', $1) AS tq
			WHERE (c.name_vector || l.search_vector) @@ tq
		)
		SELECT h.key, h.name, h.website, h.active, h.batch, h.stage, s.momentum_score, h.rank
		FROM hits h
		LEFT JOIN company_scores s ON s.company_id = h.id
		ORDER BY ` + order + `
		LIMIT $2 OFFSET $3`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.SearchHit, error) {
		var h domain.SearchHit
		err := row.Scan(&h.Key, &h.Name, &h.Website, &h.Active, &h.Batch, &h.Stage, &h.Momentum, &h.Rank)
		return h, err
	}, sql, q.Q, q.Limit, q.Offset())
	if err != nil {
		return nil, perr.FromPostgresf(err, "search %q", q.Q)
	}
	return out, nil
}

func (r *queries) Company(ctx context.Context, key string) (domain.Company, error) {
	c, err := store.One(ctx, r.q, func(row store.Row) (domain.Company, error) {
		var c domain.Company
		err := row.Scan(&c.ID, &c.Key, &c.Name, &c.Website, &c.Active, &c.FirstSeenAt, &c.LastSeenAt)
		return c, err
	}, `
		SELECT id, key, name, website, active, first_seen_at, last_seen_at
		FROM companies WHERE key = $1`, key)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Company{}, perr.NotFoundf("company %q not found", key)
	}
	if err != nil {
		return domain.Company{}, perr.FromPostgresf(err, "company %s", key)
	}
	return c, nil
}

func (r *queries) LatestSnapshot(ctx context.Context, companyID int64) (*domain.Snapshot, error) {
	s, err := store.One(ctx, r.q, func(row store.Row) (domain.Snapshot, error) {
		var s domain.Snapshot
		var tags []byte
		if err := row.Scan(&s.Batch, &s.Stage, &s.Website, &s.Location, &s.Description,
			&s.TeamSize, &tags, &s.Hash, &s.CapturedAt); err != nil {
			return s, err
		}
		s.Tags = []string{}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &s.Tags); err != nil {
				return s, perr.Wrapf(err, perr.ErrorCodeJSON, "decode tags")
			}
		}
		return s, nil
	}, `
		SELECT batch, stage, website, location, description, team_size, tags,
			snapshot_hash, captured_at
		FROM company_snapshots
		WHERE company_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1`, companyID)
	if errors.Is(err, perr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgresf(err, "latest snapshot %d", companyID)
	}
	return &s, nil
}

func (r *queries) Score(ctx context.Context, companyID int64) (*domain.Score, error) {
	s, err := store.One(ctx, r.q, func(row store.Row) (domain.Score, error) {
		var s domain.Score
		err := row.Scan(&s.Momentum, &s.Stability, &s.UpdatedAt)
		return s, err
	}, `
		SELECT momentum_score, stability_score, updated_at
		FROM company_scores WHERE company_id = $1`, companyID)
	if errors.Is(err, perr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgresf(err, "score %d", companyID)
	}
	return &s, nil
}

func (r *queries) Insights(ctx context.Context, companyID int64) (domain.Insights, error) {
	var in domain.Insights
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM company_changes WHERE company_id = $1),
			(SELECT max(detected_at) FROM company_changes WHERE company_id = $1),
			(SELECT count(*) FROM company_snapshots WHERE company_id = $1)
	`, companyID).Scan(&in.TotalChanges, &in.LastChangeAt, &in.Snapshots)
	if err != nil {
		return domain.Insights{}, perr.FromPostgresf(err, "insights %d", companyID)
	}
	return in, nil
}

func (r *queries) Changes(ctx context.Context, companyID int64, limit int) ([]domain.ChangeRow, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.ChangeRow, error) {
		var c domain.ChangeRow
		err := row.Scan(&c.ID, &c.Type, &c.Old, &c.New, &c.DetectedAt)
		return c, err
	}, `
		SELECT id, change_type, old_value, new_value, detected_at
		FROM company_changes
		WHERE company_id = $1
		ORDER BY detected_at DESC, id DESC
		LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "changes %d", companyID)
	}
	return out, nil
}
