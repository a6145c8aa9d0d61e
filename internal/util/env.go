package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// EnvInt64OrDefault parses key as a base-10 integer. An unset variable
// yields fallback; a malformed one is an error.
func EnvInt64OrDefault(key string, fallback int64) (int64, error) {
	raw := EnvOrDefault(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// EnvDurationOrDefault parses key with time.ParseDuration. A bare number
// is read as seconds.
func EnvDurationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := EnvOrDefault(key, "")
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
