package domain

import (
	"context"

	rundom "ycintel/internal/services/runs/domain"
)

// ServicePort is consumed by handlers
type ServicePort interface {
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderRow, error)
	Trends(ctx context.Context, q TrendsQuery) (Trends, error)
	Search(ctx context.Context, q SearchQuery) (SearchPage, error)
	Company(ctx context.Context, key string) (CompanyView, error)
	CompanyChanges(ctx context.Context, key string, q PageQuery) ([]ChangeRow, error)
	Runs(ctx context.Context, q PageQuery) ([]rundom.Run, error)
	Run(ctx context.Context, id string) (rundom.Run, error)
}

// Repo is the read only persistence surface
type Repo interface {
	Leaderboard(ctx context.Context, by string, limit int) ([]LeaderRow, error)
	TopTags(ctx context.Context, limit int) ([]Count, error)
	TopLocations(ctx context.Context, limit int) ([]Count, error)
	ChangeTypes(ctx context.Context) ([]Count, error)
	RecentlyChanged(ctx context.Context, limit int) ([]RecentChange, error)
	Search(ctx context.Context, q SearchQuery) ([]SearchHit, error)
	Company(ctx context.Context, key string) (Company, error)
	LatestSnapshot(ctx context.Context, companyID int64) (*Snapshot, error)
	Score(ctx context.Context, companyID int64) (*Score, error)
	Insights(ctx context.Context, companyID int64) (Insights, error)
	Changes(ctx context.Context, companyID int64, limit int) ([]ChangeRow, error)
}
