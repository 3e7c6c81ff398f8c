package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateRefreshLog, downCreateRefreshLog)
}

func upCreateRefreshLog(ctx context.Context, tx *sql.Tx) error {
	createQuery := `
		CREATE TABLE IF NOT EXISTS refresh_log (
			id             TEXT PRIMARY KEY NOT NULL,
			started_at_ms  INTEGER NOT NULL,
			finished_at_ms INTEGER NOT NULL,
			status         TEXT NOT NULL CHECK (status IN ('success', 'failed')),
			stage          TEXT,
			count          INTEGER NOT NULL DEFAULT 0,
			message        TEXT
		);
	`
	if _, err := tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("creating refresh_log table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_refresh_log_started ON refresh_log (started_at_ms)`); err != nil {
		return fmt.Errorf("creating refresh_log index: %w", err)
	}

	// Caches written before the history existed get a synthetic successful entry so the
	// "last updated" status survives the upgrade.
	var count int
	var lastUpdated sql.NullInt64
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*), MAX(last_updated_epoch_ms) FROM launches`)
	if err := row.Scan(&count, &lastUpdated); err != nil {
		return fmt.Errorf("reading existing launches: %w", err)
	}
	if count > 0 && lastUpdated.Valid {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO refresh_log (id, started_at_ms, finished_at_ms, status, count) VALUES (?, ?, ?, 'success', ?)`,
			"00000000-0000-0000-0000-000000000000", lastUpdated.Int64, lastUpdated.Int64, count)
		if err != nil {
			return fmt.Errorf("backfilling refresh_log: %w", err)
		}
	}
	return nil
}

func downCreateRefreshLog(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_refresh_log_started`); err != nil {
		return fmt.Errorf("dropping refresh_log index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS refresh_log`); err != nil {
		return fmt.Errorf("dropping refresh_log table: %w", err)
	}
	return nil
}
