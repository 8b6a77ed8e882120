package am

import (
	"net/url"

	"github.com/teranos/gallery/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Endpoint == "" {
		return errors.WithHint(errors.New("store.endpoint cannot be empty"),
			"set store.endpoint in am.toml or GALLERY_STORE_ENDPOINT")
	}
	u, err := url.Parse(c.Store.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("store.endpoint must be an http(s) url, got %q", c.Store.Endpoint)
	}
	if c.Store.TimeoutSeconds < 0 {
		return errors.Newf("store.timeout_seconds must be >= 0, got %d", c.Store.TimeoutSeconds)
	}
	// 0 = unlimited
	if c.Store.MaxQueriesPerSecond < 0 {
		return errors.Newf("store.max_queries_per_second must be >= 0, got %f", c.Store.MaxQueriesPerSecond)
	}
	if c.Store.Burst < 0 {
		return errors.Newf("store.burst must be >= 0, got %d", c.Store.Burst)
	}

	if c.Gallery.RefreshDebounceMS < 0 {
		return errors.Newf("gallery.refresh_debounce_ms must be >= 0, got %d", c.Gallery.RefreshDebounceMS)
	}
	if c.Gallery.WaitTimeoutMS <= 0 {
		return errors.Newf("gallery.wait_timeout_ms must be > 0, got %d", c.Gallery.WaitTimeoutMS)
	}
	if c.Gallery.EditWorkers <= 0 {
		return errors.Newf("gallery.edit_workers must be > 0, got %d", c.Gallery.EditWorkers)
	}
	if c.Gallery.EventBuffer <= 0 {
		return errors.Newf("gallery.event_buffer must be > 0, got %d", c.Gallery.EventBuffer)
	}

	if c.Notify.DebounceMS < 0 {
		return errors.Newf("notify.debounce_ms must be >= 0, got %d", c.Notify.DebounceMS)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Newf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
