package repo

import (
	"context"
	"sync"

	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	pstrings "ycintel/internal/platform/strings"
	"ycintel/internal/services/changes/domain"
)

const chTable = "company_changes"

var chColumns = []string{"id", "company_id", "change_type", "old_value", "new_value", "detected_at"}

const chDDL = `
CREATE TABLE IF NOT EXISTS company_changes (
	id          Int64,
	company_id  Int64,
	change_type LowCardinality(String),
	old_value   Nullable(String),
	new_value   Nullable(String),
	detected_at DateTime64(3, 'UTC')
)
ENGINE = ReplacingMergeTree
ORDER BY (company_id, detected_at, id)
`

// CH mirrors change events into a ClickHouse table.
// ReplacingMergeTree on id makes a re-sent batch harmless
type CH struct {
	db    store.Clickhouse
	mu    sync.Mutex
	ready bool
}

// NewCH returns a mirror over db
func NewCH(db store.Clickhouse) *CH { return &CH{db: db} }

// EnsureSchema creates the mirror table. A failed attempt is retried on the next call
func (m *CH) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return nil
	}
	if err := m.db.Exec(ctx, chDDL); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "clickhouse: create company_changes")
	}
	m.ready = true
	return nil
}

// Mirror batch inserts cs
func (m *CH) Mirror(ctx context.Context, cs []domain.Change) error {
	if len(cs) == 0 {
		return nil
	}
	if err := m.EnsureSchema(ctx); err != nil {
		return err
	}
	rows := make([][]any, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []any{
			c.ID, c.CompanyID, c.Kind.String(),
			nullable(c.Old), nullable(c.New),
			c.DetectedAt.UTC(),
		})
	}
	if err := m.db.Insert(ctx, chTable, chColumns, rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse: mirror %d changes", len(cs))
	}
	return nil
}

func nullable(p *string) *string { return pstrings.Ptr(pstrings.Deref(p)) }
