package api

import (
	"time"

	"github.com/tfkr-ae/deltav"
	"github.com/tfkr-ae/deltav/domain"
)

// UI states derived from the cache and the offline flag.
const (
	StateLoading = "loading"
	StateError   = "error"
	StateReady   = "ready"
)

const noCachedLaunches = "no cached launches available while offline"

// State is what a UI needs to decide between a spinner, an error and the launch list.
type State struct {
	State       string     `json:"state"`
	Offline     bool       `json:"offline"`
	Count       int        `json:"count"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// DeriveState maps a snapshot and the tracker status to a UI state.
// An empty cache is loading until a refresh fails, then it is an error.
// A non-empty cache is always ready, flagged offline when the last refresh failed.
func DeriveState(launches []*domain.Launch, status deltav.Status) State {
	if len(launches) == 0 {
		if !status.Offline {
			return State{State: StateLoading}
		}
		message := noCachedLaunches
		if status.LastRefresh != nil && status.LastRefresh.Message != "" {
			message = status.LastRefresh.Message
		}
		return State{State: StateError, Offline: true, Message: message}
	}

	state := State{State: StateReady, Offline: status.Offline, Count: len(launches)}
	if latest := domain.LatestUpdate(launches); !latest.IsZero() {
		state.LastUpdated = &latest
	}
	return state
}
