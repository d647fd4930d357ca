package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Station   StationConfig   `mapstructure:"station"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Retention RetentionConfig `mapstructure:"retention"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TrackerConfig holds M-Team API connection details and the local output directory
type TrackerConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	RSS    string `mapstructure:"rss"`
	Output string `mapstructure:"output"`
	// Random delay range in seconds applied before every API request.
	MinDelay int           `mapstructure:"min_delay"`
	MaxDelay int           `mapstructure:"max_delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StationConfig selects and configures the download station backend
type StationConfig struct {
	Backend     string            `mapstructure:"backend"`
	Synology    SynologyConfig    `mapstructure:"synology"`
	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
}

// SynologyConfig holds Synology Download Station connection details
type SynologyConfig struct {
	IP       string        `mapstructure:"ip"`
	Port     int           `mapstructure:"port"`
	Account  string        `mapstructure:"account"`
	Password string        `mapstructure:"password"`
	HTTPS    bool          `mapstructure:"https"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QBittorrentConfig holds qBittorrent Web API connection details
type QBittorrentConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Category string `mapstructure:"category"`
	// Download directory of added torrents, qBittorrent default when empty
	SavePath  string `mapstructure:"save_path"`
	AddPaused bool   `mapstructure:"add_paused"`
	// Remove downloaded data together with deleted torrents
	DeleteFiles bool `mapstructure:"delete_files"`
}

// FilterConfig contains filter expressions for tracker items
type FilterConfig struct {
	Default string            `mapstructure:"default"`
	Presets map[string]string `mapstructure:"presets"`
}

// RetentionConfig holds the thresholds used by the check command
type RetentionConfig struct {
	StallTimeout time.Duration `mapstructure:"stall_timeout"`
	ExpiryMargin time.Duration `mapstructure:"expiry_margin"`
	SeedPeriod   time.Duration `mapstructure:"seed_period"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
	File   string `mapstructure:"file"`
}

// Station backends
const (
	BackendSynology    = "synology"
	BackendQBittorrent = "qbittorrent"
)
