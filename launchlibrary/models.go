package launchlibrary

// LaunchResponse is one page of the /launch/upcoming/ endpoint.
type LaunchResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NetworkLaunch `json:"results"`
}

// NetworkLaunch mirrors the subset of the Launch Library 2 launch schema that deltav caches.
type NetworkLaunch struct {
	ID                    string                  `json:"id"`
	URL                   string                  `json:"url"`
	Slug                  string                  `json:"slug"`
	Name                  string                  `json:"name"`
	Status                *NetworkStatus          `json:"status"`
	LastUpdated           string                  `json:"last_updated"` // Upstream edit time, not used as the cache stamp.
	NET                   string                  `json:"net"`          // RFC 3339.
	Image                 string                  `json:"image"`
	Infographic           string                  `json:"infographic"`
	LaunchServiceProvider *NetworkServiceProvider `json:"launch_service_provider"`
	Mission               *NetworkMission         `json:"mission"`
	Pad                   *NetworkPad             `json:"pad"`
	Rocket                *NetworkRocket          `json:"rocket"`
}

// NetworkStatus is the lifecycle status of a launch.
type NetworkStatus struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Abbrev      string `json:"abbrev"`
	Description string `json:"description"`
}

// NetworkServiceProvider is the agency or company running the launch.
type NetworkServiceProvider struct {
	ID   int    `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NetworkMission describes the payload mission.
type NetworkMission struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// NetworkRocket wraps the launch vehicle configuration.
type NetworkRocket struct {
	ID            int                         `json:"id"`
	Configuration *NetworkRocketConfiguration `json:"configuration"`
}

// NetworkRocketConfiguration is the human readable vehicle description.
type NetworkRocketConfiguration struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Family   string `json:"family"`
	FullName string `json:"full_name"`
	Variant  string `json:"variant"`
}

// NetworkPad is the launch site.
type NetworkPad struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Location *NetworkLocation `json:"location"`
	MapURL   string           `json:"map_url"`
}

// NetworkLocation is the spaceport a pad belongs to.
type NetworkLocation struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Description string `json:"description"`
}
