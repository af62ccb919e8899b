// Package duration provides human-readable duration parsing for the
// segment and target-duration settings the transmuxer core is
// configured with. Those settings live in the single-digit-second
// range (one HLS segment's nominal length), so this package stops at
// Go's native hour/minute/second/sub-second units — day, week, month,
// and year units have no meaningful reading for a segment duration and
// would only let a config typo ("6mo" instead of "6s") parse silently
// instead of failing loudly.
//
// Supported units (case-insensitive, with plural/singular variants):
//   - ns, nanosecond(s): nanoseconds
//   - us/µs, microsecond(s): microseconds
//   - ms, millisecond(s): milliseconds
//   - s, sec, second(s): seconds
//   - m, min, minute(s): minutes
//   - h, hr, hour(s): hours
//
// A bare number with no unit is read as seconds, matching how HLS
// playlist tooling writes #EXT-X-TARGETDURATION: "6" means 6 seconds.
//
// Examples:
//   - "6" = 6 seconds
//   - "6s" = 6 seconds
//   - "1.5s" = 1500 milliseconds
//   - "90s" = 1m30s
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// standardUnitReplacements maps full word time units to their Go duration equivalents.
// This allows users to write "3 hours" instead of "3h".
var standardUnitReplacements = map[string]string{
	// Hours
	"hour":  "h",
	"hours": "h",
	"hr":    "h",
	"hrs":   "h",

	// Minutes
	"minute":  "m",
	"minutes": "m",
	"min":     "m",
	"mins":    "m",

	// Seconds
	"second":  "s",
	"seconds": "s",
	"sec":     "s",
	"secs":    "s",

	// Milliseconds
	"millisecond":  "ms",
	"milliseconds": "ms",
	"milli":        "ms",
	"millis":       "ms",

	// Microseconds
	"microsecond":  "us",
	"microseconds": "us",
	"micro":        "us",
	"micros":       "us",

	// Nanoseconds
	"nanosecond":  "ns",
	"nanoseconds": "ns",
	"nano":        "ns",
	"nanos":       "ns",
}

// standardUnitPattern matches standard time units written as full words
// with optional whitespace between number and unit.
// Examples: "3 hours", "30 minutes", "5 seconds"
var standardUnitPattern = regexp.MustCompile(`(?i)(\d+)\s*(hours?|hrs?|minutes?|mins?|seconds?|secs?|milliseconds?|millis?|microseconds?|micros?|nanoseconds?|nanos?)`)

// bareNumberPattern matches a string that is only a number (int or
// float), with no unit at all, optionally signed.
var bareNumberPattern = regexp.MustCompile(`^-?[0-9]+(?:\.[0-9]+)?$`)

// Parse parses a human-readable duration string. It extends Go's
// standard time.ParseDuration with full-word standard units ("3 hours")
// and reads a bare number as seconds.
//
// Whitespace between number and unit is optional: "3h" and "3 hours"
// are equivalent.
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	trimmed := strings.TrimSpace(s)
	if bareNumberPattern.MatchString(trimmed) {
		seconds, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("duration: invalid number %q: %w", trimmed, err)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
	}

	// Convert full word time units (hours, minutes, seconds, etc.) to
	// their short Go duration form.
	remaining := standardUnitPattern.ReplaceAllStringFunc(trimmed, func(match string) string {
		matches := standardUnitPattern.FindStringSubmatch(match)
		if len(matches) == 3 {
			value := matches[1]
			unit := strings.ToLower(matches[2])
			if shortUnit, ok := standardUnitReplacements[unit]; ok {
				return value + shortUnit
			}
		}
		return match
	})

	// Go's duration parser doesn't accept spaces between units.
	remaining = strings.Join(strings.Fields(remaining), "")

	if remaining == "" {
		remaining = "0s"
	}

	d, err := time.ParseDuration(remaining)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}

	if negative {
		d = -d
	}

	return d, nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
// Use only for compile-time constants.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format converts a duration to a human-readable string built from
// hours, minutes, seconds, and sub-second components. Zero components
// are omitted: 1h0m0s becomes 1h, 1h0m10s becomes 1h10s.
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	negative := d < 0
	if negative {
		d = -d
	}

	var result strings.Builder

	hours := d / time.Hour
	d -= hours * time.Hour

	minutes := d / time.Minute
	d -= minutes * time.Minute

	seconds := d / time.Second
	d -= seconds * time.Second

	if hours > 0 {
		fmt.Fprintf(&result, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&result, "%dm", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&result, "%ds", seconds)
	}
	if d > 0 {
		if d >= time.Millisecond {
			ms := d / time.Millisecond
			d -= ms * time.Millisecond
			fmt.Fprintf(&result, "%dms", ms)
		}
		if d >= time.Microsecond {
			us := d / time.Microsecond
			d -= us * time.Microsecond
			fmt.Fprintf(&result, "%dµs", us)
		}
		if d > 0 {
			fmt.Fprintf(&result, "%dns", d)
		}
	}

	if result.Len() == 0 {
		return "0s"
	}

	if negative {
		return "-" + result.String()
	}
	return result.String()
}
