package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tfkr-ae/deltav/domain"
)

var _ domain.LaunchRepository = (*Repository)(nil)

const launchColumns = `id, display_name, mission_name, status_name, status_abbrev, provider_name,
	rocket_name, pad_name, location_name, country_code, net_epoch_ms, image_url, detail_url,
	mission_description, last_updated_epoch_ms`

// dbLaunch represents a launch as stored in the database.
type dbLaunch struct {
	ID                 string         `db:"id"`
	DisplayName        sql.NullString `db:"display_name"`
	MissionName        sql.NullString `db:"mission_name"`
	StatusName         sql.NullString `db:"status_name"`
	StatusAbbrev       sql.NullString `db:"status_abbrev"`
	ProviderName       sql.NullString `db:"provider_name"`
	RocketName         sql.NullString `db:"rocket_name"`
	PadName            sql.NullString `db:"pad_name"`
	LocationName       sql.NullString `db:"location_name"`
	CountryCode        sql.NullString `db:"country_code"`
	NETEpochMs         sql.NullInt64  `db:"net_epoch_ms"` // NULL when the launch is unscheduled.
	ImageURL           sql.NullString `db:"image_url"`
	DetailURL          sql.NullString `db:"detail_url"`
	MissionDescription sql.NullString `db:"mission_description"`
	LastUpdatedEpochMs int64          `db:"last_updated_epoch_ms"`
}

// toDomainLaunch converts a dbLaunch to a domain.Launch.
func toDomainLaunch(row *dbLaunch) *domain.Launch {
	return &domain.Launch{
		ID:                 row.ID,
		DisplayName:        row.DisplayName.String,
		MissionName:        row.MissionName.String,
		ProviderName:       row.ProviderName.String,
		RocketName:         row.RocketName.String,
		PadName:            row.PadName.String,
		LocationName:       row.LocationName.String,
		CountryCode:        row.CountryCode.String,
		NET:                fromNullMillis(row.NETEpochMs),
		ImageURL:           row.ImageURL.String,
		DetailURL:          row.DetailURL.String,
		MissionDescription: row.MissionDescription.String,
		Status: domain.LaunchStatus{
			Name:         row.StatusName.String,
			Abbreviation: row.StatusAbbrev.String,
		},
		LastUpdated: fromMillis(row.LastUpdatedEpochMs),
	}
}

// fromDomainLaunch converts a domain.Launch to a dbLaunch.
func fromDomainLaunch(launch *domain.Launch) *dbLaunch {
	return &dbLaunch{
		ID:                 launch.ID,
		DisplayName:        nullString(launch.DisplayName),
		MissionName:        nullString(launch.MissionName),
		StatusName:         nullString(launch.Status.Name),
		StatusAbbrev:       nullString(launch.Status.Abbreviation),
		ProviderName:       nullString(launch.ProviderName),
		RocketName:         nullString(launch.RocketName),
		PadName:            nullString(launch.PadName),
		LocationName:       nullString(launch.LocationName),
		CountryCode:        nullString(launch.CountryCode),
		NETEpochMs:         nullMillis(launch.NET),
		ImageURL:           nullString(launch.ImageURL),
		DetailURL:          nullString(launch.DetailURL),
		MissionDescription: nullString(launch.MissionDescription),
		LastUpdatedEpochMs: toMillis(launch.LastUpdated),
	}
}

// GetLaunches retrieves every cached launch ordered by NET, unscheduled launches last.
func (repo *Repository) GetLaunches() ([]*domain.Launch, error) {
	var rows []*dbLaunch
	query := `SELECT ` + launchColumns + ` FROM launches
		ORDER BY net_epoch_ms IS NULL, net_epoch_ms ASC, id ASC`

	err := repo.dbConn.Select(&rows, query)
	if err != nil {
		return nil, fmt.Errorf("getting launches: %w", err)
	}

	launches := make([]*domain.Launch, len(rows))
	for i, row := range rows {
		launches[i] = toDomainLaunch(row)
	}
	return launches, nil
}

// GetLaunch retrieves a single cached launch by id.
func (repo *Repository) GetLaunch(id string) (*domain.Launch, error) {
	var row dbLaunch
	query := `SELECT ` + launchColumns + ` FROM launches WHERE id = ?`

	err := repo.dbConn.Get(&row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting launch %s: %w", id, domain.ErrLaunchNotFound)
		}
		return nil, fmt.Errorf("getting launch %s: %w", id, err)
	}
	return toDomainLaunch(&row), nil
}

// ReplaceLaunches clears the launches table and inserts the given launches in one transaction.
// Nothing is visible to other connections until the commit, and any error rolls back both steps.
func (repo *Repository) ReplaceLaunches(ctx context.Context, launches []*domain.Launch) error {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM launches`); err != nil {
		return fmt.Errorf("clearing launches: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO launches (`+launchColumns+`) VALUES (
		:id, :display_name, :mission_name, :status_name, :status_abbrev, :provider_name,
		:rocket_name, :pad_name, :location_name, :country_code, :net_epoch_ms, :image_url, :detail_url,
		:mission_description, :last_updated_epoch_ms)`)
	if err != nil {
		return fmt.Errorf("preparing launch insert: %w", err)
	}
	defer stmt.Close()

	for _, launch := range launches {
		if _, err := stmt.ExecContext(ctx, fromDomainLaunch(launch)); err != nil {
			return fmt.Errorf("inserting launch %s: %w", launch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace transaction: %w", err)
	}
	return nil
}
