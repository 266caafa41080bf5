// Package config provides configuration loading and lookup helpers for the
// converter.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/reglet-dev/opensearch-nix/domain/errors"
)

// Config represents raw configuration as a key-value map, as decoded from
// a YAML file.
type Config = map[string]any

// GetString extracts a string from config, returning (value, found).
func GetString(config Config, key string) (string, bool) {
	v, ok := config[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt extracts an int from config, handling int, int64, and float64.
// A float64 with a fractional part is not an int.
func GetInt(config Config, key string) (int, bool) {
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// GetFloat extracts a float64 from config, handling float64, int, and int64.
func GetFloat(config Config, key string) (float64, bool) {
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetDuration extracts a duration written either as a Go duration string
// ("30s") or as a number of milliseconds.
func GetDuration(config Config, key string) (time.Duration, error) {
	v, ok := config[key]
	if !ok {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, &errors.ConfigError{Field: key, Err: err}
		}
		return d, nil
	}
	ms, ok := GetInt(config, key)
	if !ok {
		return 0, &errors.ConfigError{
			Field: key,
			Err:   fmt.Errorf("field '%s' must be a duration string or milliseconds", key),
		}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// GetStringDefault extracts a string from config or returns the default value.
func GetStringDefault(config Config, key, defaultValue string) string {
	s, ok := GetString(config, key)
	if !ok {
		return defaultValue
	}
	return s
}

// GetIntDefault extracts an int from config or returns the default value.
func GetIntDefault(config Config, key string, defaultValue int) int {
	i, ok := GetInt(config, key)
	if !ok {
		return defaultValue
	}
	return i
}

// GetFloatDefault extracts a float64 from config or returns the default value.
func GetFloatDefault(config Config, key string, defaultValue float64) float64 {
	f, ok := GetFloat(config, key)
	if !ok {
		return defaultValue
	}
	return f
}
