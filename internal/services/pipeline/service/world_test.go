package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/record"
	"ycintel/internal/core/score"
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/platform/store"
	changedom "ycintel/internal/services/changes/domain"
	rundom "ycintel/internal/services/runs/domain"
	scoredom "ycintel/internal/services/scoring/domain"
	snapdom "ycintel/internal/services/snapshots/domain"

	"github.com/google/uuid"
)

// world is an in-memory database behind the snapshot, change and score repos
type world struct {
	mu        sync.Mutex
	companies map[string]int64
	keys      map[int64]string
	active    map[int64]bool
	snaps     []snapdom.Snapshot
	changes   []changedom.Change
	scores    map[int64]score.Result
}

func newWorld() *world {
	return &world{
		companies: map[string]int64{},
		keys:      map[int64]string{},
		active:    map[int64]bool{},
		scores:    map[int64]score.Result{},
	}
}

// snapshots StorageRepo

func (w *world) UpsertCompany(_ context.Context, rec record.Raw, _ time.Time) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.companies[rec.Key]
	if !ok {
		id = int64(len(w.companies) + 1)
		w.companies[rec.Key] = id
		w.keys[id] = rec.Key
	}
	w.active[id] = rec.Active
	return id, nil
}

func (w *world) LockCompany(context.Context, int64) error { return nil }

func (w *world) LatestHash(_ context.Context, id int64) (string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(w.snaps) - 1; i >= 0; i-- {
		if w.snaps[i].CompanyID == id {
			return w.snaps[i].Hash, true, nil
		}
	}
	return "", false, nil
}

func (w *world) InsertSnapshot(_ context.Context, id int64, f canon.Fields, hash string, at time.Time) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sid := int64(len(w.snaps) + 1)
	w.snaps = append(w.snaps, snapdom.Snapshot{ID: sid, CompanyID: id, Fields: f, Hash: hash, CapturedAt: at})
	return sid, nil
}

func (w *world) LatestTwo(_ context.Context, id int64) ([]snapdom.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var mine []snapdom.Snapshot
	for _, s := range w.snaps {
		if s.CompanyID == id {
			mine = append(mine, s)
		}
	}
	if len(mine) > 2 {
		mine = mine[len(mine)-2:]
	}
	return mine, nil
}

func (w *world) DeactivateMissing(_ context.Context, seen []string, _ time.Time) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	keep := map[string]bool{}
	for _, k := range seen {
		keep[k] = true
	}
	var n int64
	for id, on := range w.active {
		if on && !keep[w.keys[id]] {
			w.active[id] = false
			n++
		}
	}
	return n, nil
}

// changes StorageRepo

func (w *world) Insert(_ context.Context, c changedom.Change) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c.ID = int64(len(w.changes) + 1)
	w.changes = append(w.changes, c)
	return c.ID, nil
}

// scoring StorageRepo

func (w *world) Histories(_ context.Context, ids []int64) ([]scoredom.HistoryRow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []scoredom.HistoryRow
	for _, c := range w.changes {
		if want[c.CompanyID] {
			out = append(out, scoredom.HistoryRow{CompanyID: c.CompanyID, ChangeType: c.Type, DetectedAt: c.DetectedAt})
		}
	}
	return out, nil
}

func (w *world) Upsert(_ context.Context, id int64, r score.Result, _ time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scores[id] = r
	return nil
}

func (w *world) ScorableIDs(context.Context) ([]int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, s := range w.snaps {
		if !seen[s.CompanyID] {
			seen[s.CompanyID] = true
			ids = append(ids, s.CompanyID)
		}
	}
	return ids, nil
}

func (w *world) activeKey(k string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active[w.companies[k]]
}

func (w *world) scoreOf(k string) score.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scores[w.companies[k]]
}

type (
	snapRepos   struct{ *world }
	changeRepos struct{ *world }
	scoreRepos  struct{ *world }
)

func (r snapRepos) Bind(repokit.Queryer) snapdom.StorageRepo     { return r.world }
func (r changeRepos) Bind(repokit.Queryer) changedom.StorageRepo { return r.world }
func (r scoreRepos) Bind(repokit.Queryer) scoredom.StorageRepo   { return r.world }

// txQ runs fn inline. commitErrs fail successive top level commits;
// depth is only meaningful with one worker
type txQ struct {
	mu         sync.Mutex
	depth      int
	tx         int
	commitErrs []error
}

func (q *txQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (q *txQ) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (q *txQ) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (q *txQ) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	q.mu.Lock()
	q.tx++
	q.depth++
	q.mu.Unlock()
	err := fn(q)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.depth--
	if err != nil {
		return err
	}
	if q.depth == 0 && len(q.commitErrs) > 0 {
		err = q.commitErrs[0]
		q.commitErrs = q.commitErrs[1:]
	}
	return err
}

// supplier serves records from a map
type supplier struct {
	mu       sync.Mutex
	keys     []string
	recs     map[string]record.Raw
	listErr  error
	fetchErr map[string]error
	listHook func()
}

func newSupplier(recs ...record.Raw) *supplier {
	s := &supplier{recs: map[string]record.Raw{}, fetchErr: map[string]error{}}
	for _, r := range recs {
		s.keys = append(s.keys, r.Key)
		s.recs[r.Key] = r
	}
	return s
}

func (s *supplier) set(recs ...record.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
	s.recs = map[string]record.Raw{}
	for _, r := range recs {
		s.keys = append(s.keys, r.Key)
		s.recs[r.Key] = r
	}
}

func (s *supplier) List(context.Context) ([]string, error) {
	if s.listHook != nil {
		s.listHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.keys...), nil
}

func (s *supplier) Fetch(_ context.Context, key string) (record.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetchErr[key]; err != nil {
		return record.Raw{}, err
	}
	r, ok := s.recs[key]
	if !ok {
		return record.Raw{}, errors.New("no such record")
	}
	return r, nil
}

// tracker is an in-memory run tracker
type tracker struct {
	mu       sync.Mutex
	started  int
	finished []rundom.Totals
	startErr error
}

func (t *tracker) Start(context.Context) (uuid.UUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startErr != nil {
		return uuid.Nil, t.startErr
	}
	t.started++
	return uuid.New(), nil
}

func (t *tracker) Finish(_ context.Context, _ uuid.UUID, tot rundom.Totals) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = append(t.finished, tot)
	return nil
}

func (t *tracker) Latest(context.Context, int) ([]rundom.Run, error) { return nil, nil }
func (t *tracker) Get(context.Context, uuid.UUID) (rundom.Run, error) {
	return rundom.Run{}, nil
}

type leaser struct{ held bool }

func (l *leaser) TryLease(context.Context, int64) (func(context.Context) error, bool, error) {
	if l.held {
		return nil, false, nil
	}
	return func(context.Context) error { return nil }, true, nil
}

type mirror struct {
	mu  sync.Mutex
	got []changedom.Change
}

func (m *mirror) Mirror(_ context.Context, cs []changedom.Change) error {
	m.mu.Lock()
	m.got = append(m.got, cs...)
	m.mu.Unlock()
	return nil
}
