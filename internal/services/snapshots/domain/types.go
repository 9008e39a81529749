// Package domain holds snapshot types and the ports the snapshot store exposes
package domain

import (
	"time"

	"ycintel/internal/core/canon"
)

// Company is the tracked entity row
type Company struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	Active      bool      `json:"active"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Snapshot is one immutable captured state of a company
type Snapshot struct {
	ID         int64
	CompanyID  int64
	Fields     canon.Fields
	Hash       string
	CapturedAt time.Time
}

// WriteResult reports what WriteIfChanged did
type WriteResult struct {
	// Written is false when the observed state hashed equal to the latest snapshot
	Written bool
	// First is true when no snapshot existed before this call
	First bool
	// Snapshot is the row written, zero when Written is false
	Snapshot Snapshot
}
