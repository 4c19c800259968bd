package config

import "time"

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// LogConfig controls the zerolog sinks
type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"omitempty,oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"maxAgeDays" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
}

// GTFSConfig contains GTFS static dataset configuration
type GTFSConfig struct {
	StaticURL        string        `yaml:"staticURL" validate:"required,url"`
	DataDir          string        `yaml:"dataDir" validate:"required"`
	DownloadInterval time.Duration `yaml:"downloadInterval" validate:"gte=0"`
	DownloadTimeout  time.Duration `yaml:"downloadTimeout" validate:"gt=0"`
	MaxDataAge       time.Duration `yaml:"maxDataAge" validate:"gte=0"`
	AutoDownload     bool          `yaml:"autoDownload"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	FeedURL    string        `yaml:"feedURL" validate:"required,url"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"maxRetries" validate:"gte=0,lte=10"`
}

// RoutingConfig configures the walking-distance routing service
type RoutingConfig struct {
	URL          string        `yaml:"url" validate:"omitempty,url"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	WalkingSpeed string        `yaml:"walkingSpeed" validate:"omitempty,oneof=slow normal fast"`
	SafetyBuffer time.Duration `yaml:"safetyBuffer" validate:"gte=0"`
}

// LocatorConfig configures network geolocation
type LocatorConfig struct {
	CacheDir string        `yaml:"cacheDir"`
	CacheTTL time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Parallel bool          `yaml:"parallel"`
}

// DepartureConfig configures the departure optimizer
type DepartureConfig struct {
	MinBuffer      time.Duration `yaml:"minBuffer" validate:"gte=0"`
	MaxSuggestions int           `yaml:"maxSuggestions" validate:"gt=0"`
	NotifyLead     time.Duration `yaml:"notifyLead" validate:"gte=0"`
	Timezone       string        `yaml:"timezone" validate:"omitempty,timezone"`
}

// FilterConfig configures /trains result limits
type FilterConfig struct {
	DefaultLimit int `yaml:"defaultLimit" validate:"gt=0,ltefield=MaxLimit"`
	MaxLimit     int `yaml:"maxLimit" validate:"gt=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Log       LogConfig       `yaml:"log"`
	GTFS      GTFSConfig      `yaml:"gtfs"`
	GTFSRT    GTFSRTConfig    `yaml:"gtfsrt"`
	Routing   RoutingConfig   `yaml:"routing"`
	Locator   LocatorConfig   `yaml:"locator"`
	Departure DepartureConfig `yaml:"departure"`
	Filter    FilterConfig    `yaml:"filter"`
}
