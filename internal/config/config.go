// Package config loads toolgate configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (TOOLGATE_ prefix, runtime override)
//  2. Config file (./toolgate.{yaml,json,toml} or ~/.toolgate/)
//  3. A named policy preset plus built-in defaults
//
// A configuration names one of the three presets (restrictive,
// moderate, permissive) as its base and may override any policy field
// declaratively under the "policy" key:
//
//	preset: moderate
//	policy:
//	  filesystem:
//	    allowed_paths: ["/srv/sandbox"]
//	  strict_mode: true
//
// Errors use sentinel values for errors.Is checks.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/toolgate/toolgate/internal/security"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrUnknownPreset indicates an unrecognized policy preset name.
	ErrUnknownPreset = errors.New("unknown policy preset")

	// ErrInvalidLogLevel indicates an unrecognized log level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrRelativePolicyPath indicates a policy path that is not absolute.
	ErrRelativePolicyPath = errors.New("policy paths must be absolute")

	// ErrInvalidPattern indicates a policy regex that does not compile.
	ErrInvalidPattern = errors.New("invalid policy pattern")

	// ErrInvalidRateLimit indicates a negative rate limit value.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// DefaultPreset is the policy base used when none is configured.
// Restrictive, because the engine is fail-closed by default.
const DefaultPreset = "restrictive"

// Config is the loaded toolgate configuration.
type Config struct {
	// Preset names the policy base: restrictive, moderate, permissive.
	Preset string `mapstructure:"preset"`

	// ServerID identifies this deployment in audit logs and rate-limit
	// keys.
	ServerID string `mapstructure:"server_id"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches log output to JSON.
	LogJSON bool `mapstructure:"log_json"`

	// Policy is the effective security policy: the preset with the
	// file's "policy" section applied on top.
	Policy security.SecurityPolicy `mapstructure:"-"`
}

// Load reads configuration from the default locations. A missing
// config file is not an error; the preset defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("toolgate")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.toolgate")
	return load(v, true)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v, false)
}

func load(v *viper.Viper, fileOptional bool) (*Config, error) {
	v.SetDefault("preset", DefaultPreset)
	v.SetDefault("server_id", "toolgate")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("TOOLGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !fileOptional || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	policy, ok := security.PresetByName(cfg.Preset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, cfg.Preset)
	}

	// Apply declarative overrides on top of the preset base.
	if sub := v.Sub("policy"); sub != nil {
		if err := sub.Unmarshal(&policy); err != nil {
			return nil, fmt.Errorf("parsing policy overrides: %w", err)
		}
	}
	cfg.Policy = policy

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot
// enforce safely.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	// Blocked paths may name foreign-platform locations (the presets
	// block C:\Windows on every OS), so only the allowlist is required
	// to be absolute here.
	for _, p := range c.Policy.Filesystem.AllowedPaths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: %q", ErrRelativePolicyPath, p)
		}
	}

	for _, patterns := range [][]string{
		c.Policy.Network.AllowedURLs,
		c.Policy.Network.BlockedURLs,
		c.Policy.Process.AllowedArgsPatterns,
		c.Policy.Process.BlockedArgsPatterns,
	} {
		for _, p := range patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, p, err)
			}
		}
	}

	rl := c.Policy.RateLimits
	if rl.MaxRequestsPerMinute < 0 || rl.MaxConcurrent < 0 || rl.MaxTotalOperations < 0 {
		return fmt.Errorf("%w: values must be non-negative", ErrInvalidRateLimit)
	}

	return nil
}

// ParseLevel converts a config log level string to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
}
