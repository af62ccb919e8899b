package transmux

import (
	"log/slog"

	"github.com/flowreel/transmux/internal/config"
)

// ProbeEntry pairs one container family's probe signature with the
// demuxer/remuxer factories that handle it. FamilyName identifies
// the pairing for the "current family" comparison configureTransmuxer
// performs before reinstantiating, since Go factories carry no runtime
// type identity of their own.
type ProbeEntry struct {
	FamilyName         string
	Probe              func(data []byte) bool
	MinProbeByteLength int
	NewDemuxer         DemuxerFactory
	NewRemuxer         RemuxerFactory
}

// ProbeTable is the fixed, ordered list of probe entries the
// orchestrator consults on every (re)probe. Precedence is first-match
// wins; entries are expected to be supplied in fMP4, TS, AAC, MP3,
// passthrough-fallback order, but the table itself is agnostic to what
// the caller supplies.
type ProbeTable struct {
	entries     []ProbeEntry
	fallback    ProbeEntry
	hasFallback bool
}

// NewProbeTable builds a table from an ordered slice of non-fallback
// entries plus the passthrough fallback pair that always matches.
func NewProbeTable(entries []ProbeEntry, fallback ProbeEntry) *ProbeTable {
	return &ProbeTable{entries: entries, fallback: fallback, hasFallback: true}
}

// MinProbeByteLength is the maximum MinProbeByteLength over every
// entry (including the fallback), floored at config.MinProbeByteFloor.
func (t *ProbeTable) MinProbeByteLength() int {
	max := 0
	for _, e := range t.entries {
		if e.MinProbeByteLength > max {
			max = e.MinProbeByteLength
		}
	}
	if t.hasFallback && t.fallback.MinProbeByteLength > max {
		max = t.fallback.MinProbeByteLength
	}
	if max < config.MinProbeByteFloor {
		max = config.MinProbeByteFloor
	}
	return max
}

// SelectOrFallback scans entries in order and returns the first whose
// Probe matches plus whether the fallback had to be used. If none
// match, it returns the passthrough fallback, logs a warning, and
// reports fellBack=true so the caller can additionally emit an event.
func (t *ProbeTable) SelectOrFallback(data []byte, logger *slog.Logger) (entry ProbeEntry, fellBack bool) {
	for _, e := range t.entries {
		if e.Probe(data) {
			return e, false
		}
	}
	if logger != nil {
		logger.Warn("transmux: no probe matched, falling back to passthrough",
			slog.Int("byte_length", len(data)))
	}
	return t.fallback, true
}
