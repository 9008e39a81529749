package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ycintel/internal/core/score"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/store"
	"ycintel/internal/services/changes/domain"
)

type fakeCH struct {
	execs   []string
	execErr error
	table   string
	cols    []string
	rows    [][]any
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.execErr
}

func (f *fakeCH) Insert(_ context.Context, table string, cols []string, rows [][]any) error {
	f.table, f.cols, f.rows = table, cols, rows
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                              { return nil }

func TestCHMirror_CreatesTableOnceAndInserts(t *testing.T) {
	t.Parallel()

	db := &fakeCH{}
	m := NewCH(db)
	old := "Active"
	cs := []domain.Change{
		{ID: 10, CompanyID: 2, Kind: score.KindStage, Old: &old, DetectedAt: time.Unix(0, 0)},
	}
	if err := m.Mirror(context.Background(), cs); err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if err := m.Mirror(context.Background(), cs); err != nil {
		t.Fatalf("Mirror again: %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0], "ReplacingMergeTree") {
		t.Fatalf("ddl execs = %v", db.execs)
	}
	if db.table != "company_changes" || len(db.cols) != 6 || len(db.rows) != 1 {
		t.Fatalf("insert table=%s cols=%v rows=%d", db.table, db.cols, len(db.rows))
	}
	row := db.rows[0]
	if row[2] != "STAGE_CHANGE" || row[4].(*string) != nil || *row[3].(*string) != "Active" {
		t.Fatalf("row = %#v", row)
	}
}

func TestCHMirror_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	db := &fakeCH{}
	if err := NewCH(db).Mirror(context.Background(), nil); err != nil || len(db.execs) != 0 {
		t.Fatalf("err=%v execs=%v", err, db.execs)
	}
}

func TestCHMirror_SchemaErrorRetried(t *testing.T) {
	t.Parallel()

	db := &fakeCH{execErr: errors.New("down")}
	m := NewCH(db)
	cs := []domain.Change{{ID: 1, Kind: score.KindTag}}
	if err := m.Mirror(context.Background(), cs); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("want db error, got %v", err)
	}
	db.execErr = nil
	if err := m.Mirror(context.Background(), cs); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if len(db.execs) != 2 {
		t.Fatalf("ddl attempts = %d", len(db.execs))
	}
}
