package store

import (
	"context"
	"errors"
	"time"

	"ycintel/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter wraps pg.PG and implements TxRunner, Leaser and Pinger
// it emits query trace events when a tracer is configured on pg.PG
type pgAdapter struct {
	p *pg.PG
}

var (
	_ TxRunner = (*pgAdapter)(nil)
	_ Leaser   = (*pgAdapter)(nil)
	_ TxRunner = txQuerier{}
)

func newPGAdapter(p *pg.PG) *pgAdapter { return &pgAdapter{p: p} }

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	a.tr().emit(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	a.tr().emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := a.p.Pool.QueryRow(ctx, sql, args...)
	t := a.tr()
	return row{
		r:     r,
		after: func(scanErr error) { t.emit(ctx, sql, args, start, scanErr) },
	}
}

// Tx runs fn in a pool transaction; fn's querier supports nested Tx as savepoints
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, tx, a.tr(), fn)
}

// TryLease takes pg_try_advisory_lock on a dedicated connection.
// The connection stays checked out until release so the session keeps the lock
func (a *pgAdapter) TryLease(ctx context.Context, key int64) (func(context.Context) error, bool, error) {
	conn, err := a.p.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		defer conn.Release()
		_, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", key)
		return err
	}
	return release, true, nil
}

func (a *pgAdapter) tr() tracing {
	if a == nil || a.p == nil {
		return tracing{}
	}
	return tracing{tracer: a.p.Tracer, slowUS: int64(a.p.SlowMs) * 1000}
}

// runTx commits on success and rolls back on error or panic
func runTx(ctx context.Context, tx pgx.Tx, t tracing, fn func(q RowQuerier) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
	}()
	if err := fn(txQuerier{tx: tx, tracing: t}); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	return tx.Commit(ctx)
}

// tracing sends query events to an optional tracer
type tracing struct {
	tracer pg.QueryTracer
	slowUS int64
}

func (t tracing) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      t.slowUS >= 0 && elapsedUS >= t.slowUS,
	})
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }

// txQuerier is the querier handed to Tx callbacks
type txQuerier struct {
	tx pgx.Tx
	tracing
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.tx.Exec(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.tx.Query(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.tx.QueryRow(ctx, sql, args...)
	return row{
		r:     r,
		after: func(scanErr error) { t.emit(ctx, sql, args, start, scanErr) },
	}
}

// Tx opens a savepoint inside the current transaction
func (t txQuerier) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, sp, t.tracing, fn)
}
