package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/tfkr-ae/deltav/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewLaunchRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

// testLaunch builds a fully populated launch. A nil net produces an unscheduled launch.
func testLaunch(id string, net *time.Time, updated time.Time) *domain.Launch {
	return &domain.Launch{
		ID:                 id,
		DisplayName:        "Falcon 9 Block 5 | " + id,
		MissionName:        "Mission " + id,
		ProviderName:       "SpaceX",
		RocketName:         "Falcon 9 Block 5",
		PadName:            "LC-39A",
		LocationName:       "Kennedy Space Center, FL, USA",
		CountryCode:        "USA",
		NET:                net,
		ImageURL:           "https://images.example/" + id + ".jpg",
		DetailURL:          "https://ll.example/launch/" + id + "/",
		MissionDescription: "Another batch of satellites.",
		Status:             domain.LaunchStatus{Name: "Go for Launch", Abbreviation: "Go"},
		LastUpdated:        updated.UTC().Truncate(time.Millisecond),
	}
}

func timePtr(t time.Time) *time.Time {
	t = t.UTC().Truncate(time.Millisecond)
	return &t
}

func replaceLaunches(t *testing.T, repo *Repository, launches ...*domain.Launch) {
	t.Helper()
	if err := repo.ReplaceLaunches(context.Background(), launches); err != nil {
		t.Fatalf("replacing launches: %v", err)
	}
}

func testRefresh(t *testing.T, repo *Repository, status string, startedAt time.Time) *domain.Refresh {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	refresh := &domain.Refresh{
		ID:         id,
		StartedAt:  startedAt.UTC().Truncate(time.Millisecond),
		FinishedAt: startedAt.Add(250 * time.Millisecond).UTC().Truncate(time.Millisecond),
		Status:     status,
	}
	if status == domain.RefreshFailed {
		refresh.Stage = domain.StageFetch
		refresh.Message = "fetching upcoming launches: connection refused"
	} else {
		refresh.Count = 2
	}

	if err := repo.InsertRefresh(refresh); err != nil {
		t.Fatalf("inserting refresh: %v", err)
	}
	return refresh
}

func TestNew(t *testing.T) {
	t.Run("should reopen an existing database and keep its contents", func(t *testing.T) {
		path := t.TempDir() + "/cache.db"

		dbConn, err := New(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		repo := NewLaunchRepo(dbConn)
		replaceLaunches(t, repo, testLaunch("a", nil, time.Now()))
		if err := repo.Close(); err != nil {
			t.Fatalf("closing repo: %v", err)
		}

		dbConn, err = New(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		repo = NewLaunchRepo(dbConn)
		defer repo.Close()

		got, err := repo.GetLaunches()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 1 || got[0].ID != "a" {
			t.Fatalf("\nwanted:\n[a]\ngot:\n%v", got)
		}
	})

	t.Run("should open the cache in wal mode at the latest schema version", func(t *testing.T) {
		dbConn, err := New(t.TempDir() + "/cache.db")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer dbConn.Close()

		var mode string
		if err := dbConn.Get(&mode, "PRAGMA journal_mode"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if mode != "wal" {
			t.Fatalf("\nwanted:\nwal\ngot:\n%s", mode)
		}

		version, err := goose.GetDBVersion(dbConn.DB)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if version != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", version)
		}
	})

	t.Run("should fail for a path in a missing directory", func(t *testing.T) {
		_, err := New(t.TempDir() + "/missing/dir/cache.db")
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
