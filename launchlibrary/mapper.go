package launchlibrary

import (
	"errors"
	"strings"
	"time"

	"github.com/tfkr-ae/deltav/domain"
)

// ErrMissingID is returned by ToLaunch for a payload without an id.
var ErrMissingID = errors.New("launch payload has no id")

// ToLaunch maps an API launch to a domain.Launch stamped with now as its LastUpdated.
// An unparseable NET is treated as unscheduled.
func ToLaunch(launch NetworkLaunch, now time.Time) (*domain.Launch, error) {
	id := strings.TrimSpace(launch.ID)
	if id == "" {
		return nil, ErrMissingID
	}

	out := &domain.Launch{
		ID:          id,
		DisplayName: launch.Name,
		ImageURL:    launch.Image,
		DetailURL:   launch.URL,
		LastUpdated: now.UTC(),
	}

	if net, err := time.Parse(time.RFC3339, launch.NET); err == nil {
		net = net.UTC()
		out.NET = &net
	}
	if launch.Status != nil {
		out.Status = domain.LaunchStatus{Name: launch.Status.Name, Abbreviation: launch.Status.Abbrev}
	}
	if launch.LaunchServiceProvider != nil {
		out.ProviderName = launch.LaunchServiceProvider.Name
	}
	if launch.Mission != nil {
		out.MissionName = launch.Mission.Name
		out.MissionDescription = launch.Mission.Description
	}
	if launch.Rocket != nil && launch.Rocket.Configuration != nil {
		out.RocketName = firstNonEmpty(
			launch.Rocket.Configuration.FullName,
			launch.Rocket.Configuration.Name,
			launch.Rocket.Configuration.Variant,
		)
	}
	if launch.Pad != nil {
		out.PadName = launch.Pad.Name
		if launch.Pad.Location != nil {
			out.LocationName = launch.Pad.Location.Name
			out.CountryCode = launch.Pad.Location.CountryCode
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
