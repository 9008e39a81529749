// Package domain holds DTOs for the read API
package domain

import (
	"time"
)

// LeaderboardQuery selects the ranking column and page size
type LeaderboardQuery struct {
	Limit int    `query:"limit" validate:"min=1,max=500"`
	By    string `query:"by" validate:"oneof=momentum stability"`
}

// LeaderRow is one ranked company
type LeaderRow struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Website   *string   `json:"website"`
	Batch     *string   `json:"batch"`
	Stage     *string   `json:"stage"`
	Momentum  int       `json:"momentum_score"`
	Stability int       `json:"stability_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrendsQuery bounds every trend list
type TrendsQuery struct {
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// Count is one bucket of a trend list
type Count struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// RecentChange is a company with its newest change time
type RecentChange struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	LastChange time.Time `json:"last_change_at"`
}

// Trends aggregates the latest snapshot of every active company plus change history
type Trends struct {
	TopTags         []Count        `json:"top_tags"`
	TopLocations    []Count        `json:"top_locations"`
	ChangeTypes     []Count        `json:"change_types"`
	RecentlyChanged []RecentChange `json:"recently_changed"`
}

// SearchQuery is a keyword search over company names and latest snapshots
type SearchQuery struct {
	Q     string `query:"q" validate:"required,min=2,max=200"`
	Sort  string `query:"sort" validate:"oneof=relevance momentum"`
	Page  int    `query:"page" validate:"min=1,max=1000"`
	Limit int    `query:"limit" validate:"min=1,max=50"`
}

// Offset is the row offset of Page
func (q SearchQuery) Offset() int { return (q.Page - 1) * q.Limit }

// SearchHit is one matching company. Momentum is nil until the company is scored
type SearchHit struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Website  *string `json:"website"`
	Active   bool    `json:"active"`
	Batch    *string `json:"batch"`
	Stage    *string `json:"stage"`
	Momentum *int    `json:"momentum_score"`
	Rank     float64 `json:"rank"`
}

// SearchPage echoes the query next to one page of hits
type SearchPage struct {
	Query   string      `json:"query"`
	Sort    string      `json:"sort"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

// PageQuery is a plain limit
type PageQuery struct {
	Limit int `query:"limit" validate:"min=1,max=500"`
}

// Company is the entity row
type Company struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Website     *string   `json:"website"`
	Active      bool      `json:"active"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Snapshot is the latest observed state as served
type Snapshot struct {
	Batch       *string   `json:"batch"`
	Stage       *string   `json:"stage"`
	Website     *string   `json:"website"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	TeamSize    *string   `json:"team_size"`
	Tags        []string  `json:"tags"`
	Hash        string    `json:"snapshot_hash"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Score is the current score pair
type Score struct {
	Momentum  int       `json:"momentum_score"`
	Stability int       `json:"stability_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Insights are derived from the change history
type Insights struct {
	TotalChanges int64      `json:"total_changes"`
	LastChangeAt *time.Time `json:"last_change_at"`
	Snapshots    int64      `json:"snapshots"`
}

// CompanyView is the company detail payload
type CompanyView struct {
	Company  Company   `json:"company"`
	Latest   *Snapshot `json:"latest_snapshot"`
	Score    *Score    `json:"score"`
	Insights Insights  `json:"insights"`
}

// ChangeRow is one change as served
type ChangeRow struct {
	ID         int64     `json:"id"`
	Type       string    `json:"change_type"`
	Old        *string   `json:"old_value"`
	New        *string   `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// OrEmpty replaces nil lists so clients always see arrays
func (t Trends) OrEmpty() Trends {
	if t.TopTags == nil {
		t.TopTags = []Count{}
	}
	if t.TopLocations == nil {
		t.TopLocations = []Count{}
	}
	if t.ChangeTypes == nil {
		t.ChangeTypes = []Count{}
	}
	if t.RecentlyChanged == nil {
		t.RecentlyChanged = []RecentChange{}
	}
	return t
}
