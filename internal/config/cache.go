package config

import (
    "strconv"
    "time"
)

// CacheConfig tunes the read-through response cache.  Only GET
// responses are cached; student records are invalidated explicitly
// after every successful update, so the TTL mostly bounds staleness of
// submission listings.
type CacheConfig struct {
    Enabled      bool          // master switch; also off when Redis is unavailable
    TTL          time.Duration // lifetime of a cache entry
    Prefix       string        // key namespace in Redis
    MaxBodyBytes int           // responses larger than this are not cached
}

// LoadCacheConfig reads cache settings from the environment with
// conservative defaults.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      getenv("CACHE_ENABLED", "true") == "true",
        TTL:          parseDur(getenv("CACHE_TTL", "30s")),
        Prefix:       getenv("CACHE_PREFIX", "records:cache"),
        MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
    }
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
