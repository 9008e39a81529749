// Package service contains read workflows for the board
package service

import (
	"context"
	"strings"

	"ycintel/internal/modkit/repokit"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/services/api/board/domain"
	rundom "ycintel/internal/services/runs/domain"

	"github.com/google/uuid"
)

// Service defines the board service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the board service
type Svc struct {
	Repo    domain.Repo
	Tracker rundom.TrackerPort
}

// New constructs a board service
func New(db repokit.Queryer, binder repokit.Binder[domain.Repo], runs rundom.TrackerPort) *Svc {
	if runs == nil {
		panic("board.Service requires a non nil TrackerPort")
	}
	return &Svc{Repo: repokit.MustBind(binder, db), Tracker: runs}
}

// Leaderboard ranks active companies by the requested score
func (s *Svc) Leaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.LeaderRow, error) {
	rows, err := s.Repo.Leaderboard(ctx, q.By, q.Limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.LeaderRow{}
	}
	return rows, nil
}

// Trends aggregates tags, locations and change activity
func (s *Svc) Trends(ctx context.Context, q domain.TrendsQuery) (domain.Trends, error) {
	var (
		t   domain.Trends
		err error
	)
	if t.TopTags, err = s.Repo.TopTags(ctx, q.Limit); err != nil {
		return domain.Trends{}, err
	}
	if t.TopLocations, err = s.Repo.TopLocations(ctx, q.Limit); err != nil {
		return domain.Trends{}, err
	}
	if t.ChangeTypes, err = s.Repo.ChangeTypes(ctx); err != nil {
		return domain.Trends{}, err
	}
	if t.RecentlyChanged, err = s.Repo.RecentlyChanged(ctx, q.Limit); err != nil {
		return domain.Trends{}, err
	}
	return t.OrEmpty(), nil
}

// Search runs a keyword search. Whitespace in q is collapsed before matching
func (s *Svc) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchPage, error) {
	q.Q = strings.Join(strings.Fields(q.Q), " ")
	if len([]rune(q.Q)) < 2 {
		return domain.SearchPage{}, perr.WithField(perr.InvalidArgf("search needs at least 2 characters"), "q")
	}
	if q.Sort == "" {
		q.Sort = "relevance"
	}
	q.Page = max(q.Page, 1)
	if q.Limit <= 0 {
		q.Limit = 20
	}
	hits, err := s.Repo.Search(ctx, q)
	if err != nil {
		return domain.SearchPage{}, err
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return domain.SearchPage{
		Query:   q.Q,
		Sort:    q.Sort,
		Page:    q.Page,
		Limit:   q.Limit,
		Count:   len(hits),
		Results: hits,
	}, nil
}

// Company returns one company with its latest snapshot, score and insights
func (s *Svc) Company(ctx context.Context, key string) (domain.CompanyView, error) {
	c, err := s.company(ctx, key)
	if err != nil {
		return domain.CompanyView{}, err
	}
	v := domain.CompanyView{Company: c}
	if v.Latest, err = s.Repo.LatestSnapshot(ctx, c.ID); err != nil {
		return domain.CompanyView{}, err
	}
	if v.Score, err = s.Repo.Score(ctx, c.ID); err != nil {
		return domain.CompanyView{}, err
	}
	if v.Insights, err = s.Repo.Insights(ctx, c.ID); err != nil {
		return domain.CompanyView{}, err
	}
	return v, nil
}

// CompanyChanges lists the newest changes of one company
func (s *Svc) CompanyChanges(ctx context.Context, key string, q domain.PageQuery) ([]domain.ChangeRow, error) {
	c, err := s.company(ctx, key)
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.Changes(ctx, c.ID, q.Limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.ChangeRow{}
	}
	return rows, nil
}

// Runs lists the newest pipeline runs
func (s *Svc) Runs(ctx context.Context, q domain.PageQuery) ([]rundom.Run, error) {
	runs, err := s.Tracker.Latest(ctx, q.Limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []rundom.Run{}
	}
	return runs, nil
}

// Run returns a single run by its id
func (s *Svc) Run(ctx context.Context, id string) (rundom.Run, error) {
	rid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return rundom.Run{}, perr.WithField(perr.InvalidArgf("run id %q is not a uuid", id), "id")
	}
	return s.Tracker.Get(ctx, rid)
}

func (s *Svc) company(ctx context.Context, key string) (domain.Company, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return domain.Company{}, perr.WithField(perr.InvalidArgf("company key is required"), "key")
	}
	return s.Repo.Company(ctx, key)
}
