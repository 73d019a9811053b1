// Package config provides configuration management for webdav-mcp using Viper
// for loading from files, environment variables, and command-line flags.
//
// Every key can be overridden from the environment with the WEBDAV_MCP_
// prefix, dots becoming underscores: presets.cache_ttl_ms is read from
// WEBDAV_MCP_PRESETS_CACHE_TTL_MS.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/validation"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "WEBDAV_MCP"

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given.
const DefaultConfigFile = ".webdav-mcp.yml"

// Default values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultPresetsDir       = "./presets"
	DefaultCacheTTLMs       = 5000
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMaxResponseBytes = 10 << 20
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Presets PresetsConfig `mapstructure:"presets" yaml:"presets" json:"presets"`
	Log     LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Limits  LimitsConfig  `mapstructure:"limits" yaml:"limits" json:"limits"`
}

type ServerConfig struct {
	URL                string        `mapstructure:"url" yaml:"url" json:"url"`
	Username           string        `mapstructure:"username" yaml:"username" json:"username"`
	Password           string        `mapstructure:"password" yaml:"password" json:"-"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

type PresetsConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir" json:"dir"`
	CacheTTLMs int    `mapstructure:"cache_ttl_ms" yaml:"cache_ttl_ms" json:"cache_ttl_ms"`
	Watch      bool   `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// CacheTTL returns the cache TTL as a duration.
func (p PresetsConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMs) * time.Millisecond
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type LimitsConfig struct {
	MaxResponseBytes int64 `mapstructure:"max_response_bytes" yaml:"max_response_bytes" json:"max_response_bytes"`
}

// ConfigureEnv enables environment overrides on the global viper instance.
func ConfigureEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults registers every key so that AutomaticEnv also applies to keys
// absent from the config file when unmarshalling.
func setDefaults() {
	viper.SetDefault("server.url", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("server.timeout", DefaultTimeout)
	viper.SetDefault("server.insecure_skip_verify", false)
	viper.SetDefault("presets.dir", DefaultPresetsDir)
	viper.SetDefault("presets.cache_ttl_ms", DefaultCacheTTLMs)
	viper.SetDefault("presets.watch", false)
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)
	viper.SetDefault("limits.max_response_bytes", DefaultMaxResponseBytes)
}

func Load() (*Config, error) {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	config.Server.URL = strings.TrimSpace(config.Server.URL)
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// RequireServer reports an error when no WebDAV server URL is configured.
func (c *Config) RequireServer() error {
	if c.Server.URL == "" {
		return apperrors.NewConfigError(apperrors.ErrCodeServerMissing,
			fmt.Sprintf("no WebDAV server configured; set server.url or %s_SERVER_URL", EnvPrefix))
	}
	return nil
}

// LoggerConfig returns the logger settings described by the log section.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = c.Log.Format
	return lc
}

// validateConfig collects every problem before reporting.
func validateConfig(config *Config) error {
	var vec apperrors.ValidationErrorCollection

	if config.Server.URL != "" {
		if err := validation.ValidateServerURL(config.Server.URL); err != nil {
			vec.AddField("server.url", validation.RedactURL(config.Server.URL), err.Error(),
				"use an http:// or https:// URL such as https://cloud.example.com/remote.php/dav/files/alice")
		}
	}
	if config.Server.Timeout <= 0 {
		vec.AddField("server.timeout", config.Server.Timeout, "must be positive", "use a value like 30s")
	}
	if strings.TrimSpace(config.Presets.Dir) == "" {
		vec.AddField("presets.dir", config.Presets.Dir, "cannot be empty")
	}
	if config.Presets.CacheTTLMs < 0 {
		vec.AddField("presets.cache_ttl_ms", config.Presets.CacheTTLMs, "cannot be negative",
			"use 0 to re-check files on every lookup")
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		vec.AddField("log.level", config.Log.Level, err.Error(), "use debug, info, warn or error")
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		vec.AddField("log.format", config.Log.Format, "must be text or json")
	}
	if config.Limits.MaxResponseBytes <= 0 {
		vec.AddField("limits.max_response_bytes", config.Limits.MaxResponseBytes, "must be positive")
	}

	if ae := vec.ToAppError(); ae != nil {
		return ae
	}
	return nil
}
