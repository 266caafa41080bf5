package config

import (
	stdErrors "errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"gopkg.in/yaml.v3"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Settings configures a conversion run.
type Settings struct {
	UserAgent    string        `yaml:"user_agent" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxBodySize  int64         `yaml:"max_body_size" validate:"gt=0"`
	RateLimit    float64       `yaml:"rate_limit" validate:"gte=0"`
	MaxRedirects int           `yaml:"max_redirects" validate:"gte=0,lte=50"`
	Jobs         int           `yaml:"jobs" validate:"gte=1,lte=64"`
}

// Keys accepted in a configuration file.
var knownKeys = map[string]struct{}{
	"user_agent":    {},
	"timeout":       {},
	"max_body_size": {},
	"rate_limit":    {},
	"max_redirects": {},
	"jobs":          {},
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		UserAgent:    "opensearch-nix/1.0",
		Timeout:      30 * time.Second,
		MaxBodySize:  10 * 1024 * 1024, // 10MB
		MaxRedirects: 10,
		Jobs:         4,
	}
}

// LoadFile reads a YAML configuration file into a Config map.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Apply overlays the values present in cfg onto base. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Apply(cfg Config, base Settings) (Settings, error) {
	var unknown []string
	for k := range cfg {
		if _, ok := knownKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return base, &errors.ConfigError{Field: unknown[0], Err: fmt.Errorf("unknown configuration key")}
	}

	s := base
	maxBodySize := int(s.MaxBodySize)
	if err := stdErrors.Join(
		lookup(cfg, "user_agent", GetString, &s.UserAgent, "a string"),
		lookup(cfg, "max_redirects", GetInt, &s.MaxRedirects, "an integer"),
		lookup(cfg, "jobs", GetInt, &s.Jobs, "an integer"),
		lookup(cfg, "rate_limit", GetFloat, &s.RateLimit, "a number"),
		lookup(cfg, "max_body_size", GetInt, &maxBodySize, "an integer"),
	); err != nil {
		return base, err
	}
	s.MaxBodySize = int64(maxBodySize)

	if _, ok := cfg["timeout"]; ok {
		d, err := GetDuration(cfg, "timeout")
		if err != nil {
			return base, err
		}
		s.Timeout = d
	}
	return s, nil
}

// lookup stores cfg[key] in dst when present. A present value of the wrong
// type is a ConfigError rather than a silent fallback.
func lookup[T any](cfg Config, key string, get func(Config, string) (T, bool), dst *T, want string) error {
	raw, ok := cfg[key]
	if !ok {
		return nil
	}
	v, ok := get(cfg, key)
	if !ok {
		return &errors.ConfigError{Field: key, Err: fmt.Errorf("must be %s, got %v (%T)", want, raw, raw)}
	}
	*dst = v
	return nil
}

// Validate checks the settings' constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &errors.ConfigError{
				Field: fe.Field(),
				Err:   fmt.Errorf("value %v fails %q", fe.Value(), fe.ActualTag()),
			}
		}
		return &errors.ConfigError{Err: err}
	}
	return nil
}
