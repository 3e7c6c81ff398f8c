package domain

import (
	"time"

	"github.com/google/uuid"
)

// Refresh statuses.
const (
	RefreshSuccess = "success"
	RefreshFailed  = "failed"
)

// Refresh failure stages.
const (
	StageFetch = "fetch"
	StageMap   = "map"
	StageStore = "store"
)

// RefreshRepository defines the interface for the refresh history.
// Entries are append-only and never affect the launch cache.
type RefreshRepository interface {
	// InsertRefresh records a refresh attempt.
	InsertRefresh(refresh *Refresh) error

	// GetRefreshes returns up to limit attempts, newest first. A limit <= 0 returns all of them.
	GetRefreshes(limit int) ([]*Refresh, error)

	// LatestRefresh returns the most recent attempt, or nil when none has been recorded.
	LatestRefresh() (*Refresh, error)
}

// Refresh represents a single attempt to repopulate the launch cache.
type Refresh struct {
	ID         uuid.UUID `json:"id"`                // Unique identifier for the attempt.
	StartedAt  time.Time `json:"started_at"`        // Also used as the LastUpdated stamp of written launches.
	FinishedAt time.Time `json:"finished_at"`       // When the attempt completed or failed.
	Status     string    `json:"status"`            // RefreshSuccess or RefreshFailed.
	Stage      string    `json:"stage,omitempty"`   // Failure stage, empty on success.
	Count      int       `json:"count"`             // Number of launches written.
	Message    string    `json:"message,omitempty"` // Error text of a failed attempt.
}

// Failed reports whether the attempt failed.
func (r *Refresh) Failed() bool {
	return r.Status == RefreshFailed
}

// Duration is the wall time the attempt took.
func (r *Refresh) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
