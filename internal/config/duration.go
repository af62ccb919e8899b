// Package config provides configuration loading and validation for transmux.
package config

import (
	"encoding/json"
	"time"

	"github.com/flowreel/transmux/pkg/duration"
)

// Duration is a time.Duration that supports human-readable parsing,
// used for TransmuxConfig's segment-duration and target-duration
// settings (single-digit seconds in practice — see pkg/duration).
//
// Examples:
//   - "6" = 6 seconds (a bare number is read as seconds)
//   - "6s" = 6 seconds
//   - "1.5s" = 1500 milliseconds
//   - "90s" = 1m30s (standard Go format still works)
//
// This type implements encoding.TextUnmarshaler for Viper/YAML support
// and json.Unmarshaler for JSON configuration files.
type Duration time.Duration

// ParseDuration parses a human-readable duration string. A bare number
// is read as seconds, matching HLS target-duration conventions.
func ParseDuration(s string) (Duration, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML/Viper support.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Try as a number (nanoseconds) for backwards compatibility
		var ns int64
		if err := json.Unmarshal(data, &ns); err != nil {
			return err
		}
		*d = Duration(ns)
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalJSON implements json.Marshaler.
// Outputs in the most human-readable format possible.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns a human-readable string representation built from
// hours, minutes, and seconds.
func (d Duration) String() string {
	return duration.Format(time.Duration(d))
}
