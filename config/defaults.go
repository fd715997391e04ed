package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl_minutes", DefaultCacheTTLMinutes)
	v.SetDefault("cache.max_entries", DefaultCacheMaxEntries)
	v.SetDefault("cache.watch_sources", true)

	v.SetDefault("fetch.timeout_seconds", DefaultFetchTimeoutSeconds)
	v.SetDefault("fetch.max_requests_per_minute", DefaultMaxRequestsPerMinute)
	v.SetDefault("fetch.allow_private_networks", false)

	v.SetDefault("log.json", false)

	v.SetDefault("registry.paths", []string{filepath.Join("~", ".taxon", "vocabularies.d")})
}

// CacheTTL returns the configured cache lifetime, falling back to the default
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return DefaultCacheTTLMinutes * time.Minute
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// CacheMaxEntries returns the configured cache size bound, falling back to the default
func (c *Config) CacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return DefaultCacheMaxEntries
	}
	return c.Cache.MaxEntries
}

// FetchTimeout returns the per-fetch timeout
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return DefaultFetchTimeoutSeconds * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
