package config

import "time"

// RateLimitConfig holds the global switches of the Redis token bucket.
// Individual routes pick their own Policy.
type RateLimitConfig struct {
    Enabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
    Prefix  string `env:"RATE_LIMIT_PREFIX" envDefault:"rl"`
    Debug   bool   `env:"RATE_LIMIT_DEBUG" envDefault:"false"`
}

// Policy is a token bucket: Capacity requests, refilled one token every
// Capacity-th of Window, so a full bucket refills in Window.
type Policy struct {
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
}

// PerWindow builds a Policy allowing n requests per window.
func PerWindow(n int, window time.Duration) Policy {
    if n < 1 { n = 1 }
    if window <= 0 { window = time.Minute }
    p := Policy{
        Capacity:       n,
        RefillTokens:   1,
        RefillInterval: window / time.Duration(n),
        TTL:            2 * window,
    }
    if p.RefillInterval <= 0 { p.RefillInterval = time.Millisecond }
    return p
}

// Route policies.
var (
    MeRateLimit           = PerWindow(3, time.Minute)
    AvatarUpdateRateLimit = PerWindow(5, time.Minute)
    AvatarDeleteRateLimit = PerWindow(3, time.Minute)
)
