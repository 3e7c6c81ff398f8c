package domain

import "time"

// StatsRepository defines the interface for cache statistics.
type StatsRepository interface {
	// GetStats aggregates counts over the launch cache and the refresh history.
	GetStats() (*Stats, error)
}

// Stats summarizes the state of the cache.
type Stats struct {
	Launches          int        `json:"launches"`                      // Cached launches.
	Scheduled         int        `json:"scheduled"`                     // Cached launches with a NET.
	Refreshes         int        `json:"refreshes"`                     // Recorded refresh attempts.
	FailedRefreshes   int        `json:"failed_refreshes"`              // Recorded failed attempts.
	LastSuccessfulRun *time.Time `json:"last_successful_run,omitempty"` // Finish time of the latest successful attempt.
}
