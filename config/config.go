package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// legacyFiles maps the flat keys of the per-service JSON files to their
// place in the nested configuration.
var legacyFiles = map[string]map[string]string{
	"mt.json": {
		"key":    "tracker.api_key",
		"rss":    "tracker.rss",
		"output": "tracker.output",
	},
	"synology.json": {
		"ip":       "station.synology.ip",
		"port":     "station.synology.port",
		"account":  "station.synology.account",
		"password": "station.synology.password",
	},
}

// Load loads the configuration from file.
//
// With an explicit path the file is read as a single nested document. Without
// one, config.{yaml,json,toml} and the flat mt.json / synology.json files are
// searched for in the standard locations and merged.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("MTSTATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else {
		dirs := SearchDirs()

		v.SetConfigName("config")
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}

		if err := mergeLegacy(v, dirs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SearchDirs returns the directories searched for configuration files, in
// priority order: next to the executable, the user config dir, the working
// directory.
func SearchDirs() []string {
	var dirs []string

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dirs = append(dirs, filepath.Dir(exe))
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "mtstation"))
	}

	return append(dirs, ".")
}

// mergeLegacy merges the first mt.json and synology.json found in dirs
// underneath any environment overrides.
func mergeLegacy(v *viper.Viper, dirs []string) error {
	for name, mapping := range legacyFiles {
		path := findFile(dirs, name)
		if path == "" {
			continue
		}

		lv := viper.New()
		lv.SetConfigFile(path)
		lv.SetConfigType("json")
		if err := lv.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}

		nested := make(map[string]any)
		for src, dst := range mapping {
			if lv.IsSet(src) {
				setNested(nested, strings.Split(dst, "."), lv.Get(src))
			}
		}

		if err := v.MergeConfigMap(nested); err != nil {
			return fmt.Errorf("error merging %s: %w", path, err)
		}
	}

	return nil
}

func findFile(dirs []string, name string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func setNested(m map[string]any, keys []string, value any) {
	for _, key := range keys[:len(keys)-1] {
		child, ok := m[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[key] = child
		}
		m = child
	}
	m[keys[len(keys)-1]] = value
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Tracker defaults
	v.SetDefault("tracker.url", "https://api.m-team.cc/api")
	v.SetDefault("tracker.api_key", "")
	v.SetDefault("tracker.rss", "")
	v.SetDefault("tracker.output", "")
	v.SetDefault("tracker.min_delay", 2)
	v.SetDefault("tracker.max_delay", 5)
	v.SetDefault("tracker.timeout", "30s")

	// Station defaults
	v.SetDefault("station.backend", BackendSynology)
	v.SetDefault("station.synology.ip", "")
	v.SetDefault("station.synology.port", 5000)
	v.SetDefault("station.synology.account", "")
	v.SetDefault("station.synology.password", "")
	v.SetDefault("station.synology.https", false)
	v.SetDefault("station.synology.timeout", "30s")
	v.SetDefault("station.qbittorrent.url", "http://localhost:8080")
	v.SetDefault("station.qbittorrent.username", "")
	v.SetDefault("station.qbittorrent.password", "")
	v.SetDefault("station.qbittorrent.category", "")
	v.SetDefault("station.qbittorrent.save_path", "")
	v.SetDefault("station.qbittorrent.add_paused", false)
	v.SetDefault("station.qbittorrent.delete_files", false)

	// Retention defaults
	v.SetDefault("retention.stall_timeout", "1h")
	v.SetDefault("retention.expiry_margin", "5m")
	v.SetDefault("retention.seed_period", "168h")

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.file", "")
}

// validate checks the settings every command depends on
func validate(cfg *Config) error {
	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	switch cfg.Station.Backend {
	case BackendSynology, BackendQBittorrent:
	default:
		return fmt.Errorf("invalid station.backend: %s (must be '%s' or '%s')",
			cfg.Station.Backend, BackendSynology, BackendQBittorrent)
	}

	if cfg.Tracker.MinDelay < 0 || cfg.Tracker.MaxDelay < cfg.Tracker.MinDelay {
		return fmt.Errorf("invalid tracker delay range: %d..%d", cfg.Tracker.MinDelay, cfg.Tracker.MaxDelay)
	}

	if cfg.Tracker.Timeout <= 0 || cfg.Station.Synology.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: tracker.timeout=%s station.synology.timeout=%s",
			cfg.Tracker.Timeout, cfg.Station.Synology.Timeout)
	}

	if cfg.Retention.StallTimeout <= 0 || cfg.Retention.ExpiryMargin < 0 || cfg.Retention.SeedPeriod <= 0 {
		return fmt.Errorf("invalid retention thresholds: stall_timeout=%s expiry_margin=%s seed_period=%s",
			cfg.Retention.StallTimeout, cfg.Retention.ExpiryMargin, cfg.Retention.SeedPeriod)
	}

	return nil
}

// ValidateTracker checks the settings needed to talk to the tracker and
// store downloads.
func (c *Config) ValidateTracker() error {
	if c.Tracker.URL == "" {
		return fmt.Errorf("tracker.url is required")
	}
	if c.Tracker.APIKey == "" || c.Tracker.APIKey == "your-api-key-here" {
		return fmt.Errorf("tracker.api_key must be set to a valid API key")
	}
	return c.ValidateOutput()
}

// ValidateOutput checks the output directory setting.
func (c *Config) ValidateOutput() error {
	if c.Tracker.Output == "" {
		return fmt.Errorf("tracker.output is required")
	}
	return nil
}

// ValidateRSS checks the settings needed to poll the RSS feed.
func (c *Config) ValidateRSS() error {
	if c.Tracker.RSS == "" {
		return fmt.Errorf("tracker.rss is required")
	}
	return c.ValidateTracker()
}

// ValidateStation checks the settings of the selected station backend.
func (c *Config) ValidateStation() error {
	switch c.Station.Backend {
	case BackendQBittorrent:
		if c.Station.QBittorrent.URL == "" {
			return fmt.Errorf("station.qbittorrent.url is required")
		}
	default:
		s := c.Station.Synology
		if s.IP == "" {
			return fmt.Errorf("station.synology.ip is required")
		}
		if s.Account == "" || s.Password == "" {
			return fmt.Errorf("station.synology.account and station.synology.password are required")
		}
		if s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("invalid station.synology.port: %d", s.Port)
		}
	}
	return nil
}

// Preset returns the filter expression registered under name.
func (c *Config) Preset(name string) (string, error) {
	// viper lowercases map keys
	if expr, ok := c.Filter.Presets[strings.ToLower(name)]; ok {
		return expr, nil
	}
	return "", fmt.Errorf("preset '%s' not found in config", name)
}
