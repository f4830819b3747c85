package config

import (
	"os"
	"strconv"
	"time"
)

// HTTPDefaults holds default values for outbound HTTP requests.
// These values can be customized via environment variables.
type HTTPDefaults struct {
	Timeout           time.Duration // Per-attempt request timeout
	MaxAttempts       int           // Total number of attempts, including the first
	RetryInitialDelay time.Duration // Initial delay between retries
	RetryMaxDelay     time.Duration // Cap on the delay between retries
}

// LoadHTTPDefaults loads HTTP request defaults from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - GMONITOR_HTTP_TIMEOUT (default: 5s)
//   - GMONITOR_HTTP_MAX_ATTEMPTS (default: 1)
//   - GMONITOR_HTTP_RETRY_INITIAL_DELAY (default: 100ms)
//   - GMONITOR_HTTP_RETRY_MAX_DELAY (default: 5s)
func LoadHTTPDefaults() *HTTPDefaults {
	return &HTTPDefaults{
		Timeout:           parseDuration("GMONITOR_HTTP_TIMEOUT", 5*time.Second),
		MaxAttempts:       parseInt("GMONITOR_HTTP_MAX_ATTEMPTS", 1),
		RetryInitialDelay: parseDuration("GMONITOR_HTTP_RETRY_INITIAL_DELAY", 100*time.Millisecond),
		RetryMaxDelay:     parseDuration("GMONITOR_HTTP_RETRY_MAX_DELAY", 5*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
