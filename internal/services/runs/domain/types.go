// Package domain defines the run tracker types and ports
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one pipeline execution
type Status string

// Run states. Running is the only non terminal one
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s ends a run
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Totals are the counters recorded once when a run finishes
type Totals struct {
	Status    Status
	Total     int
	New       int
	Updated   int
	Unchanged int
	Failed    int
	Scored    int
	AvgMS     float64
	Error     string
}

// Run is one row of scrape_runs. Counters stay nil until the run finishes
type Run struct {
	ID        uuid.UUID  `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    Status     `json:"status"`
	Total     *int       `json:"total"`
	New       *int       `json:"new"`
	Updated   *int       `json:"updated"`
	Unchanged *int       `json:"unchanged"`
	Failed    *int       `json:"failed"`
	Scored    *int       `json:"scored"`
	AvgMS     *float64   `json:"avg_ms"`
	Error     *string    `json:"error,omitempty"`
}
