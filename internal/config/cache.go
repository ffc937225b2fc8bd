package config

import (
	"time"
)

// CacheConfig drives the response cache applied to the admin dashboard.
// Only that surface is cached: booking and notification reads must stay
// exact (the unread count is a tested invariant), but dashboard
// statistics tolerate a short staleness window.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	ttl := 30 * time.Second
	if v := envStr("CACHE_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          ttl,
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
