package store

import (
	"context"
	"errors"

	"ycintel/internal/platform/store/ch"
)

// chClient is the subset of *ch.CH the adapter needs
type chClient interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

func newCHAdapter(c chClient) Clickhouse { return &clickhouseAdapter{inner: c} }

// clickhouseAdapter adapts *ch.CH to the store.Clickhouse seam
type clickhouseAdapter struct {
	inner chClient
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.inner.Exec(ctx, sql, args...)
}

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if table == "" || len(columns) == 0 {
		return errors.New("store: ch insert needs a table and columns")
	}
	for _, r := range rows {
		if len(r) != len(columns) {
			return errors.New("store: ch insert row width does not match columns")
		}
	}
	return a.inner.Insert(ctx, table, columns, rows)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{r: r}, nil
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// Ping verifies connectivity with ClickHouse
func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

// rowsAdapter wraps ch.Rows as store.Rows
type rowsAdapter struct {
	r ch.Rows
}

func (r *rowsAdapter) Next() bool             { return r.r.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.r.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.r.Err() }
func (r *rowsAdapter) Close()                 { _ = r.r.Close() }
func (r *rowsAdapter) Columns() []string      { return r.r.Columns() }
