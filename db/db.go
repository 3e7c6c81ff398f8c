package db

import (
	"embed"
	"fmt"

	_ "github.com/tfkr-ae/deltav/db/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql migrations/*.go
var embedMigrations embed.FS

// cachePragmas are applied to every connection of the launch cache.
const cachePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Repository is the SQLite launch cache together with its refresh log.
// It satisfies the launch, refresh and stats repositories of the domain package.
type Repository struct {
	dbConn *sqlx.DB
}

// NewLaunchRepo wraps a connection returned by New.
func NewLaunchRepo(db *sqlx.DB) *Repository {
	return &Repository{
		dbConn: db,
	}
}

// Close releases the cache file.
func (repo *Repository) Close() error {
	err := repo.dbConn.Close()
	if err != nil {
		return fmt.Errorf("closing launch cache : %w", err)
	}
	return nil
}

// New opens (or creates) the launch cache at path and brings its schema up to date.
// Writes go through a single connection; WAL lets reads of the committed generation
// continue while a replace is in progress.
func New(path string) (*sqlx.DB, error) {
	cache, err := sqlx.Connect("sqlite", fmt.Sprintf("file:%s?%s", path, cachePragmas))
	if err != nil {
		return nil, fmt.Errorf("opening launch cache %s : %w", path, err)
	}
	cache.SetMaxOpenConns(1)

	if err := migrate(cache); err != nil {
		cache.Close()
		return nil, err
	}
	return cache, nil
}

// migrate applies the embedded schema and refresh log migrations.
func migrate(cache *sqlx.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("selecting migration dialect : %w", err)
	}
	if err := goose.Up(cache.DB, "migrations"); err != nil {
		return fmt.Errorf("migrating launch cache : %w", err)
	}
	return nil
}
