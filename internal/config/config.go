// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it (dependency injection).
type AppConfig struct {
	Log         LogConfig         `mapstructure:"log"`
	Sources     SourcesConfig     `mapstructure:"sources"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Filters     FiltersConfig     `mapstructure:"filters"`
	Digest      DigestConfig      `mapstructure:"digest"`
	Render      RenderConfig      `mapstructure:"render"`
	Server      ServerConfig      `mapstructure:"server"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file", "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"` // Level at which to include stack trace
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// SourcesConfig holds one section per assistant log store.
type SourcesConfig struct {
	Claude SourceConfig `mapstructure:"claude"`
	Codex  SourceConfig `mapstructure:"codex"`
	Junie  SourceConfig `mapstructure:"junie"`
}

// SourceConfig configures a single adapter.
// Empty keyword lists mean "use the adapter's built-in list".
type SourceConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Root    string   `mapstructure:"root"`
	Anchor  string   `mapstructure:"anchor"`  // path segment preceding the project name
	Deny    []string `mapstructure:"deny"`    // project name substrings that exclude a project
	Allow   []string `mapstructure:"allow"`   // project name substrings that include a project
	Trivial []string `mapstructure:"trivial"` // request substrings that mark an activity as trivial
}

// CorrelationConfig holds the request/tool join settings.
type CorrelationConfig struct {
	Window time.Duration `mapstructure:"window"`
}

// FiltersConfig holds triviality filter settings shared by the line-delimited sources.
type FiltersConfig struct {
	MinRequestLength int `mapstructure:"min_request_length"`
}

// DigestConfig controls the highlight bullet digest.
type DigestConfig struct {
	MaxBullets   int      `mapstructure:"max_bullets"`
	PrefixLength int      `mapstructure:"prefix_length"`
	TextLength   int      `mapstructure:"text_length"`
	Keywords     []string `mapstructure:"keywords"`
}

// RenderConfig controls the chronological log rendering.
type RenderConfig struct {
	RequestWidth int    `mapstructure:"request_width"`
	MaxFiles     int    `mapstructure:"max_files"`
	TimeFormat   string `mapstructure:"time_format"`
	Timezone     string `mapstructure:"timezone"` // IANA name, empty = local time
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Headers     string `mapstructure:"headers"` // comma separated key=value pairs
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	// Create a new config struct with default values
	cfg := defaultConfig()

	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("worklog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.worklog")
	}

	// Configure viper to use environment variables
	v.SetEnvPrefix("WORKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath == "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the viper configuration into our config struct.
	// This will overwrite the default values with any values found in the config file or env vars.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand paths that may contain ~ or environment variables
	cfg.expandPaths()

	// Validate the final configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys registers the keys AutomaticEnv cannot discover on its own,
// since viper only consults the environment for keys it already knows about.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"log.level",
		"sources.claude.enabled", "sources.claude.root",
		"sources.codex.enabled", "sources.codex.root",
		"sources.junie.enabled", "sources.junie.root",
		"correlation.window",
		"render.timezone",
		"server.host", "server.port",
		"telemetry.enabled", "telemetry.endpoint", "telemetry.headers",
	} {
		_ = v.BindEnv(key)
	}
}

// DefaultConfig returns the built-in configuration without reading any file.
func DefaultConfig() *AppConfig {
	cfg := defaultConfig()
	cfg.expandPaths()
	return &cfg
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "WARN",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "console",
					Enabled: true,
				},
				{
					Type:    "file",
					Enabled: false, // nothing is persisted unless asked for
					Path:    "~/.worklog/logs/worklog.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  20,
						MaxBackups: 3,
						MaxAgeDays: 14,
						Compress:   true,
					},
				},
			},
			Levels: map[string]string{
				"adapters":  "WARN",
				"aggregate": "WARN",
				"cli":       "WARN",
				"server":    "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:     false,
				IncludeTimestamp:  true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
		Sources: SourcesConfig{
			Claude: SourceConfig{
				Enabled: true,
				Root:    "~/.claude/projects",
				Anchor:  "Projects",
			},
			Codex: SourceConfig{
				Enabled: true,
				Root:    "~/.codex/sessions",
				Anchor:  "Projects",
			},
			Junie: SourceConfig{
				Enabled: true,
				Root:    "~/Library/Caches/JetBrains",
				Anchor:  "projects",
			},
		},
		Correlation: CorrelationConfig{
			Window: 300 * time.Second,
		},
		Filters: FiltersConfig{
			MinRequestLength: 5,
		},
		Digest: DigestConfig{
			MaxBullets:   10,
			PrefixLength: 50,
			TextLength:   150,
		},
		Render: RenderConfig{
			RequestWidth: 100,
			MaxFiles:     5,
			TimeFormat:   "15:04",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8087,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "worklog",
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values
func (c *AppConfig) expandPaths() {
	c.Sources.Claude.Root = expandPath(c.Sources.Claude.Root)
	c.Sources.Codex.Root = expandPath(c.Sources.Codex.Root)
	c.Sources.Junie.Root = expandPath(c.Sources.Junie.Root)

	for i := range c.Log.Output {
		c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	return path
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Correlation.Window <= 0 {
		return fmt.Errorf("correlation.window must be positive, got: %s", c.Correlation.Window)
	}

	if c.Filters.MinRequestLength < 0 {
		return fmt.Errorf("filters.min_request_length must not be negative, got: %d", c.Filters.MinRequestLength)
	}

	if c.Digest.MaxBullets <= 0 || c.Digest.PrefixLength <= 0 || c.Digest.TextLength <= 0 {
		return errors.New("digest.max_bullets, digest.prefix_length and digest.text_length must be positive")
	}

	if c.Render.RequestWidth <= 0 || c.Render.MaxFiles <= 0 {
		return errors.New("render.request_width and render.max_files must be positive")
	}

	if c.Render.Timezone != "" {
		if _, err := time.LoadLocation(c.Render.Timezone); err != nil {
			return fmt.Errorf("invalid render.timezone %q: %w", c.Render.Timezone, err)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}

	return nil
}

// Location returns the configured display location, defaulting to local time.
func (rc *RenderConfig) Location() *time.Location {
	if rc.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(rc.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Addr returns the listen address for the HTTP server.
func (sc *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}
