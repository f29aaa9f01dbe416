// Package config provides configuration management for depfilter.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (DEPFILTER_ prefix)
//  3. Config file (.depfilter.yaml)
//
// Profiles and field definitions are read from the same file with
// sigs.k8s.io/yaml so their keys keep their case.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/logging"
	"github.com/hupe1980/depfilter/internal/record"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = logging.FormatText
	LogFormatJSON = logging.FormatJSON
)

// DefaultOrder is the dependency order used when none is configured.
var DefaultOrder = []string{record.FieldAccount, record.FieldRegion, record.FieldCluster}

// Config represents the global configuration for depfilter.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// Order is the dependency order of filter fields.
	Order []string `mapstructure:"order" json:"order"`

	// Sort is the heading display order: first-seen, alpha or version.
	Sort string `mapstructure:"sort" json:"sort"`

	// SearchFields are concatenated into the free-text search field.
	SearchFields []string `mapstructure:"search-fields" json:"searchFields,omitempty"`

	// Debounce is the quiet period before a scheduled recompute.
	Debounce time.Duration `mapstructure:"debounce" json:"debounce"`

	// Profiles are the custom profiles from the config file.
	Profiles map[string]filter.Profile `mapstructure:"-" json:"profiles,omitempty"`

	// Fields are the filter model field definitions from the config file.
	Fields *FieldsConfig `mapstructure:"-" json:"fields,omitempty"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load, not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Order:     append([]string(nil), DefaultOrder...),
		Sort:      string(cascade.SortFirstSeen),
		Debounce:  25 * time.Millisecond,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	if err := cascade.Validate([]*record.Record{}, c.Order); err != nil {
		return fmt.Errorf("invalid order: %w", err)
	}

	if _, err := cascade.ParseSortMode(c.Sort); err != nil {
		return err
	}

	if c.Debounce < 0 {
		return fmt.Errorf("invalid debounce %s: must not be negative", c.Debounce)
	}

	for name, p := range c.Profiles {
		if err := filter.ValidateProfile(p); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// LoggingOptions returns the logger settings.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Quiet:  c.Quiet,
	}
}

// SortMode returns the parsed heading sort mode.
func (c *Config) SortMode() cascade.SortMode {
	mode, err := cascade.ParseSortMode(c.Sort)
	if err != nil {
		return cascade.SortFirstSeen
	}

	return mode
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Order = splitList(cfg.Order)
	cfg.SearchFields = splitList(cfg.SearchFields)

	if cfg.ConfigFile != "" {
		data, err := os.ReadFile(cfg.ConfigFile) //nolint:gosec // path is a user-provided config file
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", cfg.ConfigFile, err)
		}

		if cfg.Profiles, err = filter.ParseProfiles(data); err != nil {
			return nil, err
		}

		if cfg.Fields, err = ParseFieldsConfig(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// splitList flattens comma-separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, 0, len(in))

	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("order", d.Order)
	v.SetDefault("sort", d.Sort)
	v.SetDefault("search-fields", []string{})
	v.SetDefault("debounce", d.Debounce)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("DEPFILTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".depfilter")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "depfilter"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
