// Package domain defines the score engine types and ports
package domain

import (
	"time"
)

// HistoryRow is one persisted change as loaded for scoring
type HistoryRow struct {
	CompanyID  int64
	ChangeType string
	DetectedAt time.Time
}

// Score is the persisted score projection for one company
type Score struct {
	CompanyID int64     `json:"company_id"`
	Momentum  int       `json:"momentum_score"`
	Stability int       `json:"stability_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BatchResult counts the outcome of a batch pass
type BatchResult struct {
	Scored int `json:"scored"`
	Failed int `json:"failed"`
}

// Add folds o into r
func (r *BatchResult) Add(o BatchResult) {
	r.Scored += o.Scored
	r.Failed += o.Failed
}
