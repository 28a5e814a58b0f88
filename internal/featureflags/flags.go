package featureflags

import (
	"os"
	"strings"
)

// Known flags. Both are off by default: the server runs with the Redis
// catalog cache and the inventory stats worker unless told otherwise.
const (
	DisableRedisCache  = "disable_redis_cache"
	DisableStatsWorker = "disable_stats_worker"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
