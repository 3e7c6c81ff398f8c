// Package deltav keeps a durable local cache of upcoming rocket launches in sync with
// the Launch Library 2 API and lets readers observe that cache reactively.
//
// The core functionality includes:
//   - Offline-first refresh: fetch, map, then replace the cache in a single transaction
//   - A snapshot feed that never blocks readers and coalesces updates for slow subscribers
//   - Single-flight refreshes, so overlapping callers share one round trip
//   - A persisted refresh history used to report the offline state across restarts
//   - Optional change events after each successful refresh
package deltav

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tfkr-ae/deltav/core"
	"github.com/tfkr-ae/deltav/domain"
	"github.com/tfkr-ae/deltav/launchlibrary"
	"github.com/tfkr-ae/deltav/logger"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "upcoming"

// Source is the remote collaborator the tracker refreshes from.
type Source interface {
	FetchUpcoming(ctx context.Context, limit int) ([]launchlibrary.NetworkLaunch, error)
}

// Repository defines the persistence methods consumed by the tracker.
type Repository interface {
	domain.LaunchRepository
	domain.RefreshRepository
	domain.StatsRepository
	Close() error
}

// Publisher receives a notification after every successful refresh.
type Publisher interface {
	PublishRefresh(ctx context.Context, refresh *domain.Refresh, launches []*domain.Launch) error
}

// Tracker is the cache refresh coordinator. It owns the snapshot feed and is the only
// writer of the launch cache.
type Tracker struct {
	ConfigDir  string                                // The configuration directory, when loaded through WithConfigDir
	Config     *Config                               // The loaded configuration, nil when built from options only
	Repo       Repository                            // Durable launch cache and refresh history
	Source     Source                                // Remote source of upcoming launches
	Publisher  Publisher                             // Optional change event sink
	Logger     *logrus.Logger                        // Structured logger, never nil
	Feed       *Feed                                 // Latest committed snapshot and its subscribers
	PageLimit  int                                   // Number of launches requested per refresh
	Now        func() time.Time                      // Clock used to stamp LastUpdated
	OnLaunches func(launches []*domain.Launch) error // Called after every committed replace
	OnRefresh  func(refresh *domain.Refresh) error   // Called after every attempt, successful or not

	group       singleflight.Group
	commitMu    sync.Mutex
	lifeMu      sync.Mutex
	closed      bool
	inflight    sync.WaitGroup
	lifetime    context.Context
	stop        context.CancelFunc
	offline     atomic.Bool
	lastRefresh atomic.Pointer[domain.Refresh]
}

// Status describes the freshness of the cache for UI consumers.
type Status struct {
	Offline     bool            `json:"offline"`                // The latest refresh attempt failed
	LastUpdated *time.Time      `json:"last_updated,omitempty"` // Newest LastUpdated in the current snapshot, nil when empty
	LastRefresh *domain.Refresh `json:"last_refresh,omitempty"` // Latest attempt, nil if none was made
	Version     uint64          `json:"version"`                // Snapshot version
}

// New creates a Tracker with default settings and applies the provided options.
func New(options ...func(*Tracker) error) (*Tracker, error) {
	tracker := &Tracker{
		Logger:    logger.Discard(),
		Feed:      NewFeed(),
		PageLimit: launchlibrary.DefaultPageLimit,
		Now:       time.Now,
	}
	tracker.lifetime, tracker.stop = context.WithCancel(context.Background())
	err := tracker.WithOptions(options...)
	if err != nil {
		tracker.stop()
		return nil, err
	}
	return tracker, nil
}

// Launches returns a copy of the latest committed snapshot. It never blocks.
func (tracker *Tracker) Launches() []*domain.Launch {
	return cloneLaunches(tracker.Feed.Latest().Launches)
}

// Subscribe is a shortcut for Feed.Subscribe.
func (tracker *Tracker) Subscribe() (<-chan Snapshot, func()) {
	return tracker.Feed.Subscribe()
}

// Status reports whether the last refresh failed and how old the cache is.
func (tracker *Tracker) Status() Status {
	snapshot := tracker.Feed.Latest()
	status := Status{
		Offline:     tracker.offline.Load(),
		LastRefresh: tracker.lastRefresh.Load(),
		Version:     snapshot.Version,
	}
	if latest := domain.LatestUpdate(snapshot.Launches); !latest.IsZero() {
		status.LastUpdated = &latest
	}
	return status
}

// Refresh repopulates the cache from the remote source.
//
// Concurrent calls share a single in-flight refresh. The shared refresh is detached from
// every caller's cancellation and only stops early when the tracker is closed. A caller
// whose context ends while waiting returns the context error without affecting the
// others.
//
// On failure the cache and the feed are untouched and the returned error is a
// *RemoteFetchError or a *StoreError. The returned refresh record is non-nil whenever the
// attempt ran to completion; an attempt abandoned by Close returns none and is not
// recorded. After Close, Refresh returns ErrClosed.
func (tracker *Tracker) Refresh(ctx context.Context) (*domain.Refresh, error) {
	if tracker.Source == nil {
		return nil, ErrNoSource
	}
	if tracker.Repo == nil {
		return nil, ErrNoRepository
	}

	shared := context.WithoutCancel(ctx)
	results := tracker.group.DoChan(refreshKey, func() (any, error) {
		if !tracker.begin() {
			return nil, ErrClosed
		}
		defer tracker.inflight.Done()

		work, cancel := context.WithCancel(shared)
		defer cancel()
		unlink := context.AfterFunc(tracker.lifetime, cancel)
		defer unlink()

		return tracker.refresh(work)
	})

	select {
	case res := <-results:
		refresh, _ := res.Val.(*domain.Refresh)
		return refresh, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run refreshes immediately and then on every tick of interval until ctx ends.
// Failed refreshes are logged and retried on the next tick.
func (tracker *Tracker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := tracker.Refresh(ctx); err != nil && ctx.Err() == nil {
			tracker.Logger.WithError(err).Warn("scheduled refresh failed, serving cached launches")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops any in-flight refresh, waits for it to return and releases the repository.
func (tracker *Tracker) Close() error {
	tracker.lifeMu.Lock()
	tracker.closed = true
	tracker.lifeMu.Unlock()

	tracker.stop()
	tracker.inflight.Wait()

	if tracker.Repo == nil {
		return nil
	}
	return tracker.Repo.Close()
}

// begin registers an in-flight refresh unless the tracker is closed.
func (tracker *Tracker) begin() bool {
	tracker.lifeMu.Lock()
	defer tracker.lifeMu.Unlock()
	if tracker.closed {
		return false
	}
	tracker.inflight.Add(1)
	return true
}

func (tracker *Tracker) refresh(ctx context.Context) (*domain.Refresh, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating refresh id : %w", err)
	}
	startedAt := tracker.Now().UTC()
	record := &domain.Refresh{ID: id, StartedAt: startedAt}
	log := tracker.Logger.WithField("refresh_id", id.String())
	log.Debug("refreshing upcoming launches")

	network, err := tracker.Source.FetchUpcoming(ctx, tracker.PageLimit)
	if err != nil {
		return tracker.fail(record, domain.StageFetch, &RemoteFetchError{Stage: domain.StageFetch, Err: err})
	}

	launches, err := tracker.mapLaunches(log, network, startedAt)
	if err != nil {
		return tracker.fail(record, domain.StageMap, &RemoteFetchError{Stage: domain.StageMap, Err: err})
	}

	tracker.commitMu.Lock()
	stampMonotonic(launches, tracker.Feed.Latest().Launches)
	domain.SortLaunches(launches)
	if err := tracker.Repo.ReplaceLaunches(ctx, launches); err != nil {
		tracker.commitMu.Unlock()
		return tracker.fail(record, domain.StageStore, &StoreError{Err: err})
	}
	snapshot := tracker.Feed.Publish(launches)
	tracker.commitMu.Unlock()

	record.FinishedAt = tracker.Now().UTC()
	if err := core.RefreshSucceeded(len(launches))(record); err != nil {
		return nil, err
	}
	tracker.record(record)

	log.WithFields(logrus.Fields{
		"count":   len(launches),
		"version": snapshot.Version,
	}).Info("refreshed upcoming launches")

	if tracker.OnLaunches != nil {
		if err := tracker.OnLaunches(cloneLaunches(snapshot.Launches)); err != nil {
			log.WithError(err).Warn("launches handler failed")
		}
	}
	if tracker.Publisher != nil {
		if err := tracker.Publisher.PublishRefresh(ctx, record, snapshot.Launches); err != nil {
			log.WithError(err).Warn("publishing refresh event failed")
		}
	}
	return record, nil
}

// mapLaunches converts the remote payload, keeping the first occurrence of a duplicated id.
func (tracker *Tracker) mapLaunches(log *logrus.Entry, network []launchlibrary.NetworkLaunch, now time.Time) ([]*domain.Launch, error) {
	launches := make([]*domain.Launch, 0, len(network))
	seen := make(map[string]struct{}, len(network))
	for i, item := range network {
		launch, err := launchlibrary.ToLaunch(item, now)
		if err != nil {
			return nil, fmt.Errorf("mapping launch at index %d: %w", i, err)
		}
		if _, ok := seen[launch.ID]; ok {
			log.WithField("launch_id", launch.ID).Warn("dropping duplicate launch from remote payload")
			continue
		}
		seen[launch.ID] = struct{}{}
		launches = append(launches, launch)
	}
	return launches, nil
}

// stampMonotonic keeps LastUpdated from moving backwards when the clock does.
func stampMonotonic(launches []*domain.Launch, previous []*domain.Launch) {
	if len(previous) == 0 {
		return
	}
	last := make(map[string]time.Time, len(previous))
	for _, l := range previous {
		last[l.ID] = l.LastUpdated
	}
	for _, l := range launches {
		if prev, ok := last[l.ID]; ok && prev.After(l.LastUpdated) {
			l.LastUpdated = prev
		}
	}
}

func (tracker *Tracker) fail(record *domain.Refresh, stage string, cause error) (*domain.Refresh, error) {
	// An attempt cut short by Close says nothing about the remote source.
	if tracker.lifetime.Err() != nil && errors.Is(cause, context.Canceled) {
		tracker.Logger.WithField("refresh_id", record.ID.String()).Debug("refresh abandoned, tracker closing")
		return nil, cause
	}

	record.FinishedAt = tracker.Now().UTC()
	if err := core.RefreshFailedAt(stage, cause)(record); err != nil {
		return nil, err
	}
	tracker.record(record)

	tracker.Logger.WithError(cause).WithFields(logrus.Fields{
		"refresh_id": record.ID.String(),
		"stage":      stage,
	}).Warn("refresh failed, cache left untouched")
	return record, cause
}

// record persists the attempt and updates the offline flag. History failures are logged only.
func (tracker *Tracker) record(record *domain.Refresh) {
	tracker.offline.Store(record.Failed())
	tracker.lastRefresh.Store(record)

	if err := tracker.Repo.InsertRefresh(record); err != nil {
		tracker.Logger.WithError(err).WithField("refresh_id", record.ID.String()).Error("recording refresh attempt")
	}
	if tracker.OnRefresh != nil {
		if err := tracker.OnRefresh(record); err != nil {
			tracker.Logger.WithError(err).Warn("refresh handler failed")
		}
	}
}

// prime loads the last committed cache and refresh state from the repository.
func (tracker *Tracker) prime() error {
	launches, err := tracker.Repo.GetLaunches()
	if err != nil {
		return fmt.Errorf("loading cached launches : %w", err)
	}
	latest, err := tracker.Repo.LatestRefresh()
	if err != nil {
		return fmt.Errorf("loading latest refresh : %w", err)
	}

	tracker.commitMu.Lock()
	tracker.Feed.Publish(launches)
	tracker.commitMu.Unlock()

	if latest != nil {
		tracker.lastRefresh.Store(latest)
		tracker.offline.Store(latest.Failed())
	}
	tracker.Logger.WithField("count", len(launches)).Debug("loaded cached launches")
	return nil
}
