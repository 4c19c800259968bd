package config

import (
	"time"

	// DefaultTimezone must resolve on hosts without a zoneinfo database
	_ "time/tzdata"
)

const (
	DefaultFeedURL   = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/mnr%2Fgtfs-mnr"
	DefaultStaticURL = "https://rrgtfsfeeds.s3.amazonaws.com/gtfsmnr.zip"
	DefaultRouteURL  = "https://api.openrouteservice.org/v2/directions/foot-walking"
	DefaultPort      = 16181
	DefaultTimezone  = "America/New_York"
)

// Default returns the configuration used when config.yml leaves a value unset.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: DefaultPort},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		GTFS: GTFSConfig{
			StaticURL:        DefaultStaticURL,
			DataDir:          "data/gtfs_static",
			DownloadInterval: 24 * time.Hour,
			DownloadTimeout:  60 * time.Second,
			MaxDataAge:       7 * 24 * time.Hour,
			AutoDownload:     true,
		},
		GTFSRT: GTFSRTConfig{
			FeedURL:    DefaultFeedURL,
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Routing: RoutingConfig{
			URL:          DefaultRouteURL,
			Timeout:      10 * time.Second,
			WalkingSpeed: "normal",
			SafetyBuffer: 2 * time.Minute,
		},
		Locator: LocatorConfig{
			CacheDir: "data/cache",
			CacheTTL: 24 * time.Hour,
			Timeout:  5 * time.Second,
		},
		Departure: DepartureConfig{
			MinBuffer:      3 * time.Minute,
			MaxSuggestions: 3,
			NotifyLead:     5 * time.Minute,
			Timezone:       DefaultTimezone,
		},
		Filter: FilterConfig{
			DefaultLimit: 20,
			MaxLimit:     100,
		},
	}
}
