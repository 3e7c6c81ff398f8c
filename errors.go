package deltav

import (
	"errors"
	"fmt"

	"github.com/tfkr-ae/deltav/domain"
)

var (
	// ErrNoSource is returned by Refresh when the tracker has no remote source.
	ErrNoSource = errors.New("tracker has no remote source")

	// ErrNoRepository is returned by Refresh when the tracker has no repository.
	ErrNoRepository = errors.New("tracker has no repository")

	// ErrClosed is returned by Refresh once Close has been called.
	ErrClosed = errors.New("tracker is closed")
)

// RemoteFetchError is returned when a refresh fails before anything is written,
// either while fetching from the remote source (Stage "fetch") or while mapping its
// payload (Stage "map").
type RemoteFetchError struct {
	Stage string
	Err   error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("refresh failed at %s: %v", e.Stage, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// StoreError is returned when the atomic replace of the cache fails.
// The previous cache generation is still in place when it is returned.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("refresh failed at %s: %v", domain.StageStore, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
