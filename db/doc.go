// Package db provides the SQLite persistence layer for deltav.
// It stores the launch cache and the refresh history and implements the repository
// interfaces of the domain package.
//
// This package is responsible for:
// - Opening the database file and applying migrations (`db.go`, `migrations/`).
// - Mapping domain structs to row structs that use `sql.Null*` for optional columns (`types.go`).
// - Replacing the launch cache inside a single transaction (`launch_repo.go`).
// - Recording refresh attempts and aggregating statistics (`refresh_repo.go`, `stats_repo.go`).
package db
