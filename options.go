package deltav

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tfkr-ae/deltav/domain"
	"github.com/tfkr-ae/deltav/logger"
)

// WithOptions applies a series of configuration functions to the tracker.
// It stops at the first option returning an error.
func (tracker *Tracker) WithOptions(options ...func(*Tracker) error) error {
	for _, option := range options {
		err := option(tracker)
		if err != nil {
			return fmt.Errorf("applying option on tracker : %w", err)
		}
	}
	return nil
}

// WithConfigDir loads (or creates) the configuration in appConfigDir and applies the
// settings the tracker itself uses.
func WithConfigDir(appConfigDir string) func(*Tracker) error {
	return func(tracker *Tracker) error {
		cfg, err := LoadConfig(appConfigDir)
		if err != nil {
			return err
		}
		tracker.ConfigDir = appConfigDir
		tracker.Config = cfg
		tracker.PageLimit = cfg.PageLimit
		return nil
	}
}

// WithRepo sets the repository, closing the previous one, and primes the feed with the
// cached launches so readers see the last good state before the first refresh.
func WithRepo(repo Repository) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if repo == nil {
			return errors.New("repository is nil")
		}
		if tracker.Repo != nil {
			if err := tracker.Repo.Close(); err != nil {
				return err
			}
			tracker.Repo = nil
		}
		tracker.Repo = repo
		return tracker.prime()
	}
}

// WithSource sets the remote source refreshes fetch from.
func WithSource(source Source) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if source == nil {
			return errors.New("source is nil")
		}
		tracker.Source = source
		return nil
	}
}

// WithPublisher sets the sink receiving an event after every successful refresh.
func WithPublisher(publisher Publisher) func(*Tracker) error {
	return func(tracker *Tracker) error {
		tracker.Publisher = publisher
		return nil
	}
}

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(log *logrus.Logger) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if log == nil {
			log = logger.Discard()
		}
		tracker.Logger = log
		return nil
	}
}

// WithPageLimit sets the number of launches requested per refresh.
func WithPageLimit(limit int) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if limit <= 0 {
			return fmt.Errorf("page limit must be positive, got %d", limit)
		}
		tracker.PageLimit = limit
		return nil
	}
}

// WithClock replaces the clock used to stamp LastUpdated.
func WithClock(now func() time.Time) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		tracker.Now = now
		return nil
	}
}

// WithLaunchesHandler takes a handler function that will be executed after every committed refresh
func WithLaunchesHandler(handler func(launches []*domain.Launch) error) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if tracker.OnLaunches != nil {
			return errors.New("tracker already has a launches handler defined")
		}
		tracker.OnLaunches = handler
		return nil
	}
}

// WithRefreshHandler takes a handler function that will be executed after every refresh attempt
func WithRefreshHandler(handler func(refresh *domain.Refresh) error) func(*Tracker) error {
	return func(tracker *Tracker) error {
		if tracker.OnRefresh != nil {
			return errors.New("tracker already has a refresh handler defined")
		}
		tracker.OnRefresh = handler
		return nil
	}
}
