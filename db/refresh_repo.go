package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tfkr-ae/deltav/domain"
)

var _ domain.RefreshRepository = (*Repository)(nil)

// dbRefresh represents a refresh attempt as stored in the database.
type dbRefresh struct {
	ID           uuid.UUID      `db:"id"`
	StartedAtMs  int64          `db:"started_at_ms"`
	FinishedAtMs int64          `db:"finished_at_ms"`
	Status       string         `db:"status"`
	Stage        sql.NullString `db:"stage"`   // Only set on failed attempts.
	Count        int            `db:"count"`   // Launches written by the attempt.
	Message      sql.NullString `db:"message"` // Only set on failed attempts.
}

// toDomainRefresh converts a dbRefresh to a domain.Refresh.
func toDomainRefresh(row *dbRefresh) *domain.Refresh {
	return &domain.Refresh{
		ID:         row.ID,
		StartedAt:  fromMillis(row.StartedAtMs),
		FinishedAt: fromMillis(row.FinishedAtMs),
		Status:     row.Status,
		Stage:      row.Stage.String,
		Count:      row.Count,
		Message:    row.Message.String,
	}
}

// InsertRefresh records a refresh attempt.
func (repo *Repository) InsertRefresh(refresh *domain.Refresh) error {
	query := `INSERT INTO refresh_log (id, started_at_ms, finished_at_ms, status, stage, count, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := repo.dbConn.Exec(query,
		refresh.ID,
		toMillis(refresh.StartedAt),
		toMillis(refresh.FinishedAt),
		refresh.Status,
		nullString(refresh.Stage),
		refresh.Count,
		nullString(refresh.Message),
	)
	if err != nil {
		return fmt.Errorf("inserting refresh %s: %w", refresh.ID, err)
	}
	return nil
}

// GetRefreshes retrieves up to limit refresh attempts, newest first.
func (repo *Repository) GetRefreshes(limit int) ([]*domain.Refresh, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []*dbRefresh
	query := `SELECT id, started_at_ms, finished_at_ms, status, stage, count, message
		FROM refresh_log ORDER BY started_at_ms DESC, id DESC LIMIT ?`

	err := repo.dbConn.Select(&rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting refreshes: %w", err)
	}

	refreshes := make([]*domain.Refresh, len(rows))
	for i, row := range rows {
		refreshes[i] = toDomainRefresh(row)
	}
	return refreshes, nil
}

// LatestRefresh retrieves the most recent refresh attempt, or nil if none exists.
func (repo *Repository) LatestRefresh() (*domain.Refresh, error) {
	var row dbRefresh
	query := `SELECT id, started_at_ms, finished_at_ms, status, stage, count, message
		FROM refresh_log ORDER BY started_at_ms DESC, id DESC LIMIT 1`

	err := repo.dbConn.Get(&row, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest refresh: %w", err)
	}
	return toDomainRefresh(&row), nil
}
