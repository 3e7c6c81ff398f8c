package deltav

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tfkr-ae/deltav/domain"
)

func TestWithLogger(t *testing.T) {
	t.Run("sets custom logger", func(t *testing.T) {
		var buf bytes.Buffer
		log := logrus.New()
		log.SetOutput(&buf)

		tracker, err := New(
			WithLogger(log),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if tracker.Logger != log {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", log, tracker.Logger)
		}

		tracker.Logger.Info("test log message")
		if !strings.Contains(buf.String(), "test log message") {
			t.Fatalf("\nwanted:\nlog output containing 'test log message'\ngot:\n%q", buf.String())
		}
	})

	t.Run("handles nil logger safely", func(t *testing.T) {
		tracker, err := New(
			WithLogger(nil),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if tracker.Logger == nil {
			t.Fatalf("\nwanted:\nnon-nil logger\ngot:\nnil")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("\nwanted:\nno panic\ngot:\n%v", r)
			}
		}()

		tracker.Logger.Info("safe check")
	})
}

func TestTrackerOptions(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		tracker, err := New()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if tracker.PageLimit != 50 {
			t.Fatalf("\nwanted:\n50\ngot:\n%d", tracker.PageLimit)
		}
		if tracker.Feed == nil || tracker.Now == nil {
			t.Fatalf("\nwanted:\nfeed and clock\ngot:\n%+v", tracker)
		}
	})

	t.Run("should reject invalid values", func(t *testing.T) {
		tests := []struct {
			name   string
			option func(*Tracker) error
		}{
			{"zero page limit", WithPageLimit(0)},
			{"nil clock", WithClock(nil)},
			{"nil source", WithSource(nil)},
			{"nil repo", WithRepo(nil)},
		}
		for _, tt := range tests {
			if _, err := New(tt.option); err == nil {
				t.Fatalf("\nwanted:\nerror for %s\ngot:\nnil", tt.name)
			}
		}
	})

	t.Run("should refuse a second handler", func(t *testing.T) {
		handler := func(launches []*domain.Launch) error { return nil }
		_, err := New(
			WithLaunchesHandler(handler),
			WithLaunchesHandler(handler),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should load the configuration directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "deltav")
		tracker, err := New(WithConfigDir(dir))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if tracker.ConfigDir != dir || tracker.Config == nil {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", dir, tracker.ConfigDir)
		}
		if tracker.Config.RefreshInterval != 30*time.Minute {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 30*time.Minute, tracker.Config.RefreshInterval)
		}
	})

	t.Run("should close the previous repository", func(t *testing.T) {
		first := openRepo(t, filepath.Join(t.TempDir(), "first.db"))
		second := openRepo(t, filepath.Join(t.TempDir(), "second.db"))

		tracker, err := New(WithRepo(first), WithRepo(second))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer tracker.Close()

		if _, err := first.GetLaunches(); err == nil {
			t.Fatalf("\nwanted:\nerror on closed repository\ngot:\nnil")
		}
		if tracker.Repo != Repository(second) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", second, tracker.Repo)
		}
	})
}
