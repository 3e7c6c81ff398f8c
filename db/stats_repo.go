package db

import (
	"database/sql"
	"fmt"

	"github.com/tfkr-ae/deltav/domain"
)

var _ domain.StatsRepository = (*Repository)(nil)

// CountLaunches returns the number of cached launches.
func (repo *Repository) CountLaunches() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM launches`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting launch count: %w", err)
	}

	return count, nil
}

// CountScheduled returns the number of cached launches that have a NET.
func (repo *Repository) CountScheduled() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM launches WHERE net_epoch_ms IS NOT NULL`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting scheduled count: %w", err)
	}

	return count, nil
}

// CountRefreshes returns the number of recorded refresh attempts with the given status.
// An empty status counts every attempt.
func (repo *Repository) CountRefreshes(status string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM refresh_log WHERE (? = '' OR status = ?)`

	err := repo.dbConn.Get(&count, query, status, status)
	if err != nil {
		return 0, fmt.Errorf("getting refresh count: %w", err)
	}

	return count, nil
}

// GetStats aggregates the counters into a domain.Stats.
func (repo *Repository) GetStats() (*domain.Stats, error) {
	launches, err := repo.CountLaunches()
	if err != nil {
		return nil, err
	}
	scheduled, err := repo.CountScheduled()
	if err != nil {
		return nil, err
	}
	refreshes, err := repo.CountRefreshes("")
	if err != nil {
		return nil, err
	}
	failed, err := repo.CountRefreshes(domain.RefreshFailed)
	if err != nil {
		return nil, err
	}

	var lastSuccess sql.NullInt64
	query := `SELECT MAX(finished_at_ms) FROM refresh_log WHERE status = ?`
	if err := repo.dbConn.Get(&lastSuccess, query, domain.RefreshSuccess); err != nil {
		return nil, fmt.Errorf("getting last successful refresh: %w", err)
	}

	return &domain.Stats{
		Launches:          launches,
		Scheduled:         scheduled,
		Refreshes:         refreshes,
		FailedRefreshes:   failed,
		LastSuccessfulRun: fromNullMillis(lastSuccess),
	}, nil
}
