package deltav

import (
	"reflect"
	"testing"
	"time"

	"github.com/tfkr-ae/deltav/domain"
)

func feedLaunch(id string) *domain.Launch {
	net := baseTime.Add(time.Hour)
	return &domain.Launch{ID: id, NET: &net, LastUpdated: baseTime}
}

func TestFeed(t *testing.T) {
	t.Run("should start with an empty snapshot", func(t *testing.T) {
		feed := NewFeed()
		latest := feed.Latest()
		if latest.Version != 0 || latest.Launches == nil || len(latest.Launches) != 0 {
			t.Fatalf("\nwanted:\nempty snapshot at version 0\ngot:\n%+v", latest)
		}
	})

	t.Run("should copy published launches", func(t *testing.T) {
		feed := NewFeed()
		launches := []*domain.Launch{feedLaunch("a")}
		feed.Publish(launches)

		launches[0].ID = "mutated"
		*launches[0].NET = baseTime

		got := feed.Latest().Launches[0]
		if got.ID != "a" || !got.NET.Equal(baseTime.Add(time.Hour)) {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", feedLaunch("a"), got)
		}
	})

	t.Run("should increase the version on every publish", func(t *testing.T) {
		feed := NewFeed()
		first := feed.Publish(nil)
		second := feed.Publish([]*domain.Launch{feedLaunch("a")})
		if first.Version != 1 || second.Version != 2 {
			t.Fatalf("\nwanted:\n1, 2\ngot:\n%d, %d", first.Version, second.Version)
		}
	})

	t.Run("should hand the current snapshot to a new subscriber", func(t *testing.T) {
		feed := NewFeed()
		feed.Publish([]*domain.Launch{feedLaunch("a")})

		updates, cancel := feed.Subscribe()
		defer cancel()

		select {
		case snapshot := <-updates:
			if !reflect.DeepEqual(ids(snapshot.Launches), []string{"a"}) {
				t.Fatalf("\nwanted:\n[a]\ngot:\n%v", ids(snapshot.Launches))
			}
		default:
			t.Fatalf("\nwanted:\npending snapshot\ngot:\nnothing")
		}
	})

	t.Run("should only keep the newest snapshot for a slow subscriber", func(t *testing.T) {
		feed := NewFeed()
		updates, cancel := feed.Subscribe()
		defer cancel()

		for i := 0; i < 10; i++ {
			feed.Publish([]*domain.Launch{feedLaunch("a")})
		}
		last := feed.Publish([]*domain.Launch{feedLaunch("b")})

		snapshot := <-updates
		if snapshot.Version != last.Version {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", last.Version, snapshot.Version)
		}
		select {
		case extra := <-updates:
			t.Fatalf("\nwanted:\nno pending snapshot\ngot:\n%+v", extra)
		default:
		}
	})

	t.Run("should close the channel on cancel", func(t *testing.T) {
		feed := NewFeed()
		updates, cancel := feed.Subscribe()
		<-updates

		cancel()
		cancel()

		if _, ok := <-updates; ok {
			t.Fatalf("\nwanted:\nclosed channel\ngot:\nopen channel")
		}
		if got := feed.Subscribers(); got != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", got)
		}
		feed.Publish([]*domain.Launch{feedLaunch("a")})
	})
}
