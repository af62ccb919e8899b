package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	if !v.GetBool("transmux.enable_software_aes") {
		t.Error("expected transmux.enable_software_aes to default to true")
	}
	if got := v.GetString("logging.level"); got != "info" {
		t.Errorf("expected logging.level default %q, got %q", "info", got)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default format json, got %q", cfg.Logging.Format)
	}
	if !cfg.Transmux.Progressive {
		t.Error("expected transmux.progressive to default to true")
	}
}

func TestValidate_RejectsBadLevel(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "verbose", Format: "json"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad logging level")
	}
}

func TestValidate_RejectsNegativeCacheLimit(t *testing.T) {
	cfg := &Config{
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Transmux: TransmuxConfig{CacheByteLimit: -1},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative cache byte limit")
	}
}
