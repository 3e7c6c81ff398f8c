package deltav

import (
	"sync"
	"sync/atomic"

	"github.com/tfkr-ae/deltav/domain"
)

// Snapshot is one committed generation of the launch cache.
// Launches are ordered and must be treated as read-only.
type Snapshot struct {
	Version  uint64           // Increases by one on every publish, 0 before the first one.
	Launches []*domain.Launch // Ordered by NET, unscheduled last. Empty means no data yet.
}

// Feed holds the latest snapshot and fans it out to subscribers.
// Readers never block; a slow subscriber only ever receives the newest snapshot.
type Feed struct {
	current     atomic.Pointer[Snapshot]
	mu          sync.Mutex // Serializes publishers and subscriber bookkeeping.
	subscribers map[uint64]chan Snapshot
	nextID      uint64
}

// NewFeed returns a feed holding an empty snapshot.
func NewFeed() *Feed {
	feed := &Feed{subscribers: make(map[uint64]chan Snapshot)}
	feed.current.Store(&Snapshot{Launches: []*domain.Launch{}})
	return feed
}

// Latest returns the most recently published snapshot.
func (feed *Feed) Latest() Snapshot {
	return *feed.current.Load()
}

// Publish stores a copy of launches as the new snapshot and notifies subscribers.
func (feed *Feed) Publish(launches []*domain.Launch) Snapshot {
	copied := cloneLaunches(launches)

	feed.mu.Lock()
	defer feed.mu.Unlock()

	snapshot := Snapshot{Version: feed.current.Load().Version + 1, Launches: copied}
	feed.current.Store(&snapshot)

	for _, ch := range feed.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the stale pending snapshot, only this goroutine sends
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

// Subscribe returns a channel that immediately holds the current snapshot and then
// receives every later one, coalescing snapshots the subscriber did not read in time.
// The returned function unsubscribes and closes the channel.
func (feed *Feed) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	feed.mu.Lock()
	id := feed.nextID
	feed.nextID++
	feed.subscribers[id] = ch
	ch <- *feed.current.Load()
	feed.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			feed.mu.Lock()
			delete(feed.subscribers, id)
			close(ch)
			feed.mu.Unlock()
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (feed *Feed) Subscribers() int {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return len(feed.subscribers)
}

func cloneLaunches(launches []*domain.Launch) []*domain.Launch {
	out := make([]*domain.Launch, len(launches))
	for i, l := range launches {
		c := *l
		if l.NET != nil {
			net := *l.NET
			c.NET = &net
		}
		out[i] = &c
	}
	return out
}
