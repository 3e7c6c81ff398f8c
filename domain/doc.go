// Package domain defines the core data structures of the deltav launch tracker.
// It contains the cached launch records, the refresh history entries and the
// repository interfaces that describe how they are persisted.
//
// The package has no knowledge of SQLite, HTTP or the upstream API. The db package
// implements the repository interfaces and the launchlibrary package maps upstream
// payloads into Launch values.
package domain
