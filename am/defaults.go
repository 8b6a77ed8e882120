package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultEndpoint     = "http://localhost:8080/sparql"
	DefaultDatabasePath = "gallery.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.endpoint", DefaultEndpoint)
	v.SetDefault("store.timeout_seconds", 30)
	v.SetDefault("store.max_queries_per_second", 0) // unlimited
	v.SetDefault("store.burst", 1)
	v.SetDefault("store.block_private_networks", false)

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("gallery.refresh_debounce_ms", 100)
	v.SetDefault("gallery.wait_timeout_ms", 5000)
	v.SetDefault("gallery.edit_workers", 4)
	v.SetDefault("gallery.event_buffer", 64)

	v.SetDefault("notify.watch_paths", []string{})
	v.SetDefault("notify.debounce_ms", 250)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds settings commonly overridden per
// environment.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("store.endpoint", "GALLERY_STORE_ENDPOINT")
	v.BindEnv("database.path", "GALLERY_DATABASE_PATH")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Store: %s, Database: %s, Gallery: {Debounce: %dms, EditWorkers: %d}}",
		c.Store.Endpoint, c.Database.Path, c.Gallery.RefreshDebounceMS, c.Gallery.EditWorkers)
}
