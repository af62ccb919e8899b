package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Standard Go format
		{"hours", "2h", 2 * time.Hour, false},
		{"minutes", "30m", 30 * time.Minute, false},
		{"seconds", "45s", 45 * time.Second, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"combined standard", "1h30m", 90 * time.Minute, false},

		// Bare numbers read as seconds, matching HLS target-duration style
		{"bare int seconds", "6", 6 * time.Second, false},
		{"bare float seconds", "1.5", 1500 * time.Millisecond, false},
		{"bare zero", "0", 0, false},
		{"bare negative seconds", "-6", -6 * time.Second, false},

		// Standard units as full words
		{"hours word", "3 hours", 3 * time.Hour, false},
		{"hour singular", "1 hour", time.Hour, false},
		{"minutes word", "30 minutes", 30 * time.Minute, false},
		{"minute singular", "1 minute", time.Minute, false},
		{"seconds word", "45 seconds", 45 * time.Second, false},
		{"second singular", "1 second", time.Second, false},
		{"hrs abbrev", "2 hrs", 2 * time.Hour, false},
		{"mins abbrev", "15 mins", 15 * time.Minute, false},
		{"secs abbrev", "30 secs", 30 * time.Second, false},
		{"target duration six seconds", "6 seconds", 6 * time.Second, false},
		{"mixed full words", "2 hours 30 minutes", 2*time.Hour + 30*time.Minute, false},
		{"full words no space", "2hours30minutes", 2*time.Hour + 30*time.Minute, false},

		// Case insensitive
		{"SECONDS uppercase", "6SECONDS", 6 * time.Second, false},
		{"Seconds mixed", "6Seconds", 6 * time.Second, false},

		// Zero
		{"zero", "0s", 0, false},
		{"zero hours", "0h", 0, false},

		// Negative
		{"negative hours", "-12h", -12 * time.Hour, false},
		{"negative seconds words", "-6 seconds", -6 * time.Second, false},

		// Errors
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
		{"day unit rejected", "30d", 0, true},
		{"week unit rejected", "2w", 0, true},
		{"month unit rejected", "1mo", 0, true},
		{"year unit rejected", "1y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d, "Parse(%q) = %v, want %v", tt.input, d, tt.expected)
		})
	}
}

func TestMustParse(t *testing.T) {
	assert.NotPanics(t, func() {
		d := MustParse("6")
		assert.Equal(t, 6*time.Second, d)
	})

	assert.Panics(t, func() {
		MustParse("invalid")
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0s"},
		{"seconds", 6 * time.Second, "6s"},
		{"minutes", 30 * time.Minute, "30m"},
		{"hours", 12 * time.Hour, "12h"},
		{"target duration six", 6 * time.Second, "6s"},
		{"segment at ninety seconds", 90 * time.Second, "1m30s"},
		{"negative seconds", -6 * time.Second, "-6s"},
		{"sub-second", 1500 * time.Millisecond, "1s500ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.duration)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	durations := []time.Duration{
		0,
		time.Second,
		time.Minute,
		time.Hour,
		6 * time.Second,
		90 * time.Second,
	}

	for _, d := range durations {
		formatted := Format(d)
		parsed, err := Parse(formatted)
		require.NoError(t, err, "Parse(Format(%v)) failed: %v", d, err)
		assert.Equal(t, d, parsed, "Round trip failed for %v: formatted=%q, parsed=%v", d, formatted, parsed)
	}
}

func TestParseEquivalence(t *testing.T) {
	equivalents := [][]string{
		{"6", "6s", "6 seconds"},
		{"90s", "1m30s", "90 seconds"},
		{"2h", "2 hours", "120m"},
	}

	for _, group := range equivalents {
		var expected time.Duration
		for i, s := range group {
			d, err := Parse(s)
			require.NoError(t, err)
			if i == 0 {
				expected = d
			} else {
				assert.Equal(t, expected, d, "%q should equal %q", s, group[0])
			}
		}
	}
}
