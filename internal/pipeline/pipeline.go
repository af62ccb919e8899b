// Package pipeline wires the concrete demux/remux adapters into the
// orchestrator's probe table and constructs ready-to-use orchestrator
// instances. It exists as a separate package from internal/transmux so
// that transmux itself stays free of a dependency on any concrete
// container implementation — exactly the "external collaborator"
// boundary the core's interfaces describe.
package pipeline

import (
	"log/slog"

	"github.com/flowreel/transmux/internal/transmux"
	"github.com/flowreel/transmux/internal/transmux/demux"
	"github.com/flowreel/transmux/internal/transmux/remux"
)

// Probe table family names, in the fMP4 → TS → AAC → MP3 →
// passthrough-fallback precedence order.
const (
	FamilyFMP4        = "fmp4"
	FamilyTS          = "ts"
	FamilyADTS        = "adts"
	FamilyMP3         = "mp3"
	FamilyPassthrough = "passthrough-fallback"
)

// NewProbeTable builds the standard, ordered probe table: fMP4 sources
// pair with the passthrough remuxer; TS, ADTS, and MP3 sources all pair
// with the to-fMP4 remuxer. A segment matching none of these (or too
// short to tell) falls back to treating itself as fMP4/passthrough,
// which is the least-destructive guess when content is unidentifiable.
func NewProbeTable(logger *slog.Logger) *transmux.ProbeTable {
	entries := []transmux.ProbeEntry{
		{
			FamilyName:         FamilyFMP4,
			Probe:              demux.ProbeFMP4,
			MinProbeByteLength: demux.MinProbeBytesFMP4,
			NewDemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool) transmux.Demuxer {
				return demux.NewFMP4Demuxer(logger)
			},
			NewRemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool, vendor string) transmux.Remuxer {
				return remux.NewPassthroughRemuxer(logger, vendor)
			},
		},
		{
			FamilyName:         FamilyTS,
			Probe:              demux.ProbeTS,
			MinProbeByteLength: demux.MinProbeBytesTS,
			NewDemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool) transmux.Demuxer {
				return demux.NewTSDemuxer(logger)
			},
			NewRemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool, vendor string) transmux.Remuxer {
				return remux.NewFMP4Remuxer(logger, vendor)
			},
		},
		{
			FamilyName:         FamilyADTS,
			Probe:              demux.ProbeADTS,
			MinProbeByteLength: demux.MinProbeBytesADTS,
			NewDemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool) transmux.Demuxer {
				return demux.NewADTSDemuxer(logger)
			},
			NewRemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool, vendor string) transmux.Remuxer {
				return remux.NewFMP4Remuxer(logger, vendor)
			},
		},
		{
			FamilyName:         FamilyMP3,
			Probe:              demux.ProbeMP3,
			MinProbeByteLength: demux.MinProbeBytesMP3,
			NewDemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool) transmux.Demuxer {
				return demux.NewMP3Demuxer(logger)
			},
			NewRemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool, vendor string) transmux.Remuxer {
				return remux.NewFMP4Remuxer(logger, vendor)
			},
		},
	}

	fallback := transmux.ProbeEntry{
		FamilyName:         FamilyPassthrough,
		Probe:              func([]byte) bool { return true },
		MinProbeByteLength: demux.MinProbeBytesFMP4,
		NewDemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool) transmux.Demuxer {
			return demux.NewFMP4Demuxer(logger)
		},
		NewRemuxer: func(_ transmux.EventEmitter, _ *transmux.TransmuxConfig, _ map[string]bool, vendor string) transmux.Remuxer {
			return remux.NewPassthroughRemuxer(logger, vendor)
		},
	}

	return transmux.NewProbeTable(entries, fallback)
}

// wallClock implements transmux.Clock using the monotonic reading
// time.Now() provides on every supported Go platform; there is no
// fallback branch because Go's runtime guarantees a monotonic
// component on all of them.
type wallClock struct{}

// NewClock returns the default Clock implementation.
func NewClock() transmux.Clock { return wallClock{} }

func (wallClock) NowMS() int64 {
	return nowMS()
}
