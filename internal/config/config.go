// Package config provides configuration loading and validation for the
// transmuxer core using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultCacheByteLimit  = 2 * 1024 * 1024 // 2MB ceiling on pre-probe accumulation
	defaultSegmentDuration = 6 * time.Second
)

// MinProbeByteFloor is the minimum number of bytes the probe table will
// ever require before attempting to identify a container, regardless of
// what any individual probe entry asks for. It exists so a misconfigured
// or degenerate probe entry (MinProbeByteLength of 0 or a handful of
// bytes) can never make the orchestrator commit to a demuxer on a
// fragment too small to contain a meaningful signature.
const MinProbeByteFloor = 1024

// Config holds all configuration for the transmuxer core and its host process.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Transmux TransmuxConfig `mapstructure:"transmux"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// TransmuxConfig holds the orchestrator's construction-time settings
// (the orchestrator's configuration inputs).
type TransmuxConfig struct {
	// EnableSoftwareAES selects between progressive software AES-128 CBC
	// decryption and single-shot asynchronous decryption.
	EnableSoftwareAES bool `mapstructure:"enable_software_aes"`

	// Progressive controls whether media is delivered to the demuxer in
	// chunks (true) or as complete segments (false). It is passed inverted
	// to the demuxer as its flush flag.
	Progressive bool `mapstructure:"progressive"`

	// Vendor is an opaque capability descriptor forwarded to remuxer
	// factories (used to select vendor-specific muxing quirks).
	Vendor string `mapstructure:"vendor"`

	// CacheByteLimit is loaded and checked to be non-negative, but the
	// orchestrator does not read it: its chunk cache has no upper bound.
	CacheByteLimit ByteSize `mapstructure:"cache_byte_limit"`

	// DefaultSegmentDuration is passed (in seconds) as the orchestrator's
	// TransmuxConfig.Duration, the track duration handed to the remuxer's
	// ResetInitSegment.
	DefaultSegmentDuration Duration `mapstructure:"default_segment_duration"`
}

// Load reads configuration from defaults, a file (if configPath is
// non-empty, otherwise an optional config.yaml on the search path), and environment
// variables prefixed TRANSMUX_, in that order of increasing precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/transmux")
		v.AddConfigPath("$HOME/.transmux")
	}

	v.SetEnvPrefix("TRANSMUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("transmux.enable_software_aes", true)
	v.SetDefault("transmux.progressive", true)
	v.SetDefault("transmux.vendor", "")
	v.SetDefault("transmux.cache_byte_limit", int64(defaultCacheByteLimit))
	v.SetDefault("transmux.default_segment_duration", defaultSegmentDuration)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Transmux.CacheByteLimit < 0 {
		return fmt.Errorf("transmux.cache_byte_limit must not be negative")
	}

	return nil
}
