package domain

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrLaunchNotFound is returned when a launch id is not present in the cache.
var ErrLaunchNotFound = errors.New("launch not found")

// LaunchRepository defines the interface for the local launch cache.
// The cache only ever holds the output of one completed refresh.
type LaunchRepository interface {
	// GetLaunches returns every cached launch ordered by NET ascending, unscheduled launches last.
	GetLaunches() ([]*Launch, error)

	// GetLaunch returns a single cached launch or ErrLaunchNotFound.
	GetLaunch(id string) (*Launch, error)

	// ReplaceLaunches removes every cached launch and inserts the given ones as a single
	// atomic operation. Readers observe either the old set or the new set, never a mix.
	ReplaceLaunches(ctx context.Context, launches []*Launch) error
}

// Launch is a single upcoming launch as cached locally.
type Launch struct {
	ID                 string       `json:"id"`                            // Stable Launch Library identifier.
	DisplayName        string       `json:"display_name,omitempty"`        // e.g. "Falcon 9 Block 5 | Starlink 9".
	MissionName        string       `json:"mission_name,omitempty"`        // Mission nickname.
	ProviderName       string       `json:"provider_name,omitempty"`       // Launch service provider.
	RocketName         string       `json:"rocket_name,omitempty"`         // Vehicle configuration.
	PadName            string       `json:"pad_name,omitempty"`            // e.g. "LC-39A".
	LocationName       string       `json:"location_name,omitempty"`       // Spaceport or region.
	CountryCode        string       `json:"country_code,omitempty"`        // Country code of the pad.
	NET                *time.Time   `json:"net,omitempty"`                 // No Earlier Than; nil when unscheduled.
	ImageURL           string       `json:"image_url,omitempty"`           // Hero image.
	DetailURL          string       `json:"detail_url,omitempty"`          // API or article link.
	MissionDescription string       `json:"mission_description,omitempty"` // Long-form mission synopsis.
	Status             LaunchStatus `json:"status"`                        // Current lifecycle status.
	LastUpdated        time.Time    `json:"last_updated"`                  // Set by the tracker when the record was written.
}

// LaunchStatus is the lifecycle status of a launch, e.g. {"Go for Launch", "Go"}.
type LaunchStatus struct {
	Name         string `json:"name,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Scheduled reports whether the launch has a NET.
func (l *Launch) Scheduled() bool {
	return l.NET != nil
}

// CompareLaunches orders launches by NET ascending with unscheduled launches last.
// Ties are broken by id so the order is total.
func CompareLaunches(a, b *Launch) int {
	switch {
	case a.NET == nil && b.NET != nil:
		return 1
	case a.NET != nil && b.NET == nil:
		return -1
	case a.NET != nil && b.NET != nil:
		if c := a.NET.Compare(*b.NET); c != 0 {
			return c
		}
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// SortLaunches sorts launches in place using CompareLaunches.
func SortLaunches(launches []*Launch) {
	slices.SortStableFunc(launches, CompareLaunches)
}

// LatestUpdate returns the most recent LastUpdated among the launches, or the zero time.
func LatestUpdate(launches []*Launch) time.Time {
	var latest time.Time
	for _, l := range launches {
		if l.LastUpdated.After(latest) {
			latest = l.LastUpdated
		}
	}
	return latest
}
