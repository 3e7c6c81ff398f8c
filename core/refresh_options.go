// Package core provides fundamental utilities for the deltav tracker.
// This file contains option functions for building refresh history entries.
package core

import (
	"errors"

	"github.com/tfkr-ae/deltav/domain"
)

// RefreshSucceeded is an option that marks a refresh as successful with the number of launches written.
func RefreshSucceeded(count int) func(refresh *domain.Refresh) error {
	return func(refresh *domain.Refresh) error {
		if count < 0 {
			return errors.New("count cannot be negative")
		}
		refresh.Status = domain.RefreshSuccess
		refresh.Stage = ""
		refresh.Message = ""
		refresh.Count = count
		return nil
	}
}

// RefreshFailedAt is an option that marks a refresh as failed at the given stage.
func RefreshFailedAt(stage string, cause error) func(refresh *domain.Refresh) error {
	return func(refresh *domain.Refresh) error {
		switch stage {
		case domain.StageFetch, domain.StageMap, domain.StageStore:
		default:
			return errors.New("stage should be either: fetch, map, store")
		}
		refresh.Status = domain.RefreshFailed
		refresh.Stage = stage
		refresh.Count = 0
		if cause != nil {
			refresh.Message = cause.Error()
		}
		return nil
	}
}
