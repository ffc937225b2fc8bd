package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig describes one token-bucket scope.  Different route
// groups carry different budgets: the general API allows a steady
// trickle, while auth/otp/reset are deliberately stingy to blunt
// brute-force and OTP spam.
type RateLimitConfig struct {
	Enabled        bool
	Scope          string // key namespace, e.g. "api", "auth", "otp"
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Debug          bool
}

// RateLimits bundles the scopes used by the router.
type RateLimits struct {
	API   RateLimitConfig // general API traffic
	Auth  RateLimitConfig // login/register
	OTP   RateLimitConfig // verify-otp
	Reset RateLimitConfig // forgot/reset password
}

// LoadRateLimits builds the scope set.  Defaults mirror the production
// budgets: 100 requests per 15 minutes for the API, 5 per 15 minutes
// for auth, 3 per hour for OTP and reset.  RATE_LIMIT_ENABLED=false
// turns everything off.
func LoadRateLimits() RateLimits {
	enabled := envBool("RATE_LIMIT_ENABLED", true)
	strategy := envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route")
	debug := envBool("RATE_LIMIT_DEBUG", false)

	scope := func(name string, capacity int, interval time.Duration) RateLimitConfig {
		cfg := RateLimitConfig{
			Enabled:        enabled,
			Scope:          name,
			Capacity:       capacity,
			RefillTokens:   capacity,
			RefillInterval: interval,
			TTL:            2 * interval,
			KeyStrategy:    strategy,
			Debug:          debug,
		}
		if v := envInt("RATE_LIMIT_"+strings.ToUpper(name)+"_CAPACITY", -1); v > 0 {
			cfg.Capacity = v
			cfg.RefillTokens = v
		}
		return cfg
	}

	return RateLimits{
		API:   scope("api", 100, 15*time.Minute),
		Auth:  scope("auth", 5, 15*time.Minute),
		OTP:   scope("otp", 3, time.Hour),
		Reset: scope("reset", 3, time.Hour),
	}
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}
