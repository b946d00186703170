package circuitbreaker

import (
	"os"
	"strconv"
	"time"
)

// Breaker thresholds are operator overrides, not application config, so they
// read straight from the environment instead of the config file.

func httpSettings() Settings {
	return settingsFromEnv("CB_HTTP", defaultSettings())
}

func redisSettings() Settings {
	return settingsFromEnv("CB_REDIS", defaultSettings())
}

func settingsFromEnv(prefix string, def Settings) Settings {
	return Settings{
		TripAfter:      envUint32(prefix+"_FAILURE_THRESHOLD", def.TripAfter),
		CloseAfter:     envUint32(prefix+"_SUCCESS_THRESHOLD", def.CloseAfter),
		ProbeLimit:     envUint32(prefix+"_MAX_REQUESTS", def.ProbeLimit),
		Cooldown:       envDuration(prefix+"_TIMEOUT", def.Cooldown),
		CountingWindow: envDuration(prefix+"_INTERVAL", def.CountingWindow),
	}
}

func envUint32(key string, def uint32) uint32 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 32); err == nil {
			return uint32(parsed)
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}
