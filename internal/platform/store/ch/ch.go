// Package ch provides the clickhouse client used by the change mirror
package ch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse client
type Config struct {
	URL        string
	ClientRole string
	ClientTag  string
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH wraps a native clickhouse connection
type CH struct {
	Conn driver.Conn
}

var openConn = clickhouse.Open

// Open parses the DSN, tags the client and pings the server
func Open(ctx context.Context, cfg Config) (*CH, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("ch: empty url")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientRole, cfg.ClientTag)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{Conn: conn}, nil
}

// Exec runs DDL or a write without a result set
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	return c.Conn.Exec(ctx, sql, args...)
}

// Insert appends rows through a native batch and sends it once
func (c *CH) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
	batch, err := c.Conn.PrepareBatch(ctx, q)
	if err != nil {
		return err
	}
	defer func(b driver.Batch) { _ = b.Abort() }(batch)

	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			return err
		}
	}
	return batch.Send()
}

// Query runs a select
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Ping checks the server answers
func (c *CH) Ping(ctx context.Context) error { return c.Conn.Ping(ctx) }

// Close closes the connection
func (c *CH) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}
