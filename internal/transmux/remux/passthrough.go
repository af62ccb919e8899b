package remux

import (
	"log/slog"

	"github.com/flowreel/transmux/internal/transmux"
)

// PassthroughRemuxer handles the probe table's fMP4 entry: the source
// segment is already fragmented MP4, so there is no container
// translation to perform, only re-fragmentation of the samples the
// fMP4 demuxer already extracted into the orchestrator's own fragment
// boundaries (timeOffset-aligned, one fragment per push/flush call)
// instead of whatever fragment boundaries the origin packager chose.
// It therefore reuses FMP4Remuxer's box-building wholesale — the
// "passthrough" name describes the codec path (no elementary-stream
// re-encoding, no container family change), not a byte-for-byte copy
// of the original moof/mdat.
type PassthroughRemuxer struct {
	inner *FMP4Remuxer
}

// NewPassthroughRemuxer constructs a passthrough remuxer.
func NewPassthroughRemuxer(logger *slog.Logger, vendor string) *PassthroughRemuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PassthroughRemuxer{inner: NewFMP4Remuxer(logger, vendor)}
}

func (r *PassthroughRemuxer) Remux(result *transmux.DemuxResult, timeOffset float64, accurateTimeOffset bool, flush bool, id string) (*transmux.RemuxResult, error) {
	return r.inner.Remux(result, timeOffset, accurateTimeOffset, flush, id)
}

func (r *PassthroughRemuxer) ResetInitSegment(initSegmentData []byte, audioCodec, videoCodec string) {
	r.inner.ResetInitSegment(initSegmentData, audioCodec, videoCodec)
}

func (r *PassthroughRemuxer) ResetTimeStamp(defaultInitPts int64) {
	r.inner.ResetTimeStamp(defaultInitPts)
}

func (r *PassthroughRemuxer) ResetNextTimestamp() {
	r.inner.ResetNextTimestamp()
}

func (r *PassthroughRemuxer) Destroy() {
	r.inner.Destroy()
}
