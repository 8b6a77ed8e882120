// Package am loads gallery configuration from TOML files and GALLERY_*
// environment variables.
package am

import "time"

// Config is the gallery configuration.
type Config struct {
	Store    StoreConfig    `mapstructure:"store" toml:"store"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Gallery  GalleryConfig  `mapstructure:"gallery" toml:"gallery"`
	Notify   NotifyConfig   `mapstructure:"notify" toml:"notify"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// StoreConfig configures the SPARQL endpoint of the metadata store.
type StoreConfig struct {
	Endpoint            string  `mapstructure:"endpoint" toml:"endpoint"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" toml:"timeout_seconds"`               // 0 = no timeout
	MaxQueriesPerSecond float64 `mapstructure:"max_queries_per_second" toml:"max_queries_per_second"` // 0 = unlimited
	Burst               int     `mapstructure:"burst" toml:"burst"`
	// Refuse endpoints resolving to loopback or private addresses.
	BlockPrivateNetworks bool `mapstructure:"block_private_networks" toml:"block_private_networks"`
}

// DatabaseConfig configures the SQLite database holding saved queries.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// GalleryConfig configures result sets.
type GalleryConfig struct {
	RefreshDebounceMS int `mapstructure:"refresh_debounce_ms" toml:"refresh_debounce_ms"`
	WaitTimeoutMS     int `mapstructure:"wait_timeout_ms" toml:"wait_timeout_ms"`
	EditWorkers       int `mapstructure:"edit_workers" toml:"edit_workers"`
	EventBuffer       int `mapstructure:"event_buffer" toml:"event_buffer"`
}

// NotifyConfig configures the file system change watcher.
type NotifyConfig struct {
	WatchPaths []string `mapstructure:"watch_paths" toml:"watch_paths"`
	DebounceMS int      `mapstructure:"debounce_ms" toml:"debounce_ms"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json" toml:"json"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// StoreTimeout returns the per-request store timeout, 0 for none.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// RefreshDebounce returns the delay coalescing change notifications.
func (c *Config) RefreshDebounce() time.Duration {
	return time.Duration(c.Gallery.RefreshDebounceMS) * time.Millisecond
}

// WaitTimeout returns how long the CLI waits for a result set to finish.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Gallery.WaitTimeoutMS) * time.Millisecond
}

// NotifyDebounce returns the delay coalescing file system events.
func (c *Config) NotifyDebounce() time.Duration {
	return time.Duration(c.Notify.DebounceMS) * time.Millisecond
}
