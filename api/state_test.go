package api

import (
	"errors"
	"testing"
	"time"

	"github.com/tfkr-ae/deltav"
	"github.com/tfkr-ae/deltav/domain"
)

func TestDeriveState(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	launches := []*domain.Launch{
		{ID: "a", LastUpdated: updated.Add(-time.Minute)},
		{ID: "b", LastUpdated: updated},
	}

	t.Run("should be loading while empty and online", func(t *testing.T) {
		got := DeriveState(nil, deltav.Status{})
		if got != (State{State: StateLoading}) {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", State{State: StateLoading}, got)
		}
	})

	t.Run("should be an error while empty and offline", func(t *testing.T) {
		got := DeriveState(nil, deltav.Status{Offline: true})
		want := State{State: StateError, Offline: true, Message: noCachedLaunches}
		if got != want {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", want, got)
		}
	})

	t.Run("should carry the failure message of the last refresh", func(t *testing.T) {
		status := deltav.Status{
			Offline:     true,
			LastRefresh: &domain.Refresh{Status: domain.RefreshFailed, Message: errors.New("dial tcp: timeout").Error()},
		}
		got := DeriveState(nil, status)
		if got.Message != "dial tcp: timeout" {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", "dial tcp: timeout", got.Message)
		}
	})

	t.Run("should be ready with stale data while offline", func(t *testing.T) {
		got := DeriveState(launches, deltav.Status{Offline: true})
		if got.State != StateReady || !got.Offline || got.Count != 2 {
			t.Fatalf("\nwanted:\nready, offline, 2 launches\ngot:\n%+v", got)
		}
		if got.LastUpdated == nil || !got.LastUpdated.Equal(updated) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", updated, got.LastUpdated)
		}
	})

	t.Run("should be ready and online after a successful refresh", func(t *testing.T) {
		got := DeriveState(launches, deltav.Status{})
		if got.State != StateReady || got.Offline {
			t.Fatalf("\nwanted:\nready and online\ngot:\n%+v", got)
		}
	})
}
