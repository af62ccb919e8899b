// Package remux implements the concrete remuxers the orchestrator
// pairs with each probe entry: the to-fMP4 remuxer for TS/ADTS/MP3
// sources and the passthrough remuxer for already-fMP4 sources.
package remux

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/fmp4"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mp4"

	"github.com/flowreel/transmux/internal/codec"
	"github.com/flowreel/transmux/internal/transmux"
)

// seekableBuffer adapts a bytes.Buffer to io.WriteSeeker, which
// mediacommon's fmp4.Init.Marshal/fmp4.Part.Marshal require even though
// a fresh in-memory buffer never actually seeks backward across a box
// boundary once box sizes are known up front.
type seekableBuffer struct {
	buf bytes.Buffer
	pos int
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	if s.pos < s.buf.Len() {
		data := s.buf.Bytes()
		n := copy(data[s.pos:], p)
		s.pos += n
		if n < len(p) {
			s.buf.Write(p[n:])
			s.pos = s.buf.Len()
		}
		return len(p), nil
	}
	n, err := s.buf.Write(p)
	s.pos += n
	return n, err
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = s.pos + int(offset)
	case io.SeekEnd:
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("seekableBuffer: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seekableBuffer: negative seek position")
	}
	s.pos = newPos
	return int64(newPos), nil
}

func (s *seekableBuffer) Bytes() []byte {
	return s.buf.Bytes()
}

// FMP4Remuxer builds fragmented MP4 output from demuxed TS/ADTS/MP3
// samples. It is the "to-fMP4" remuxer of the probe table's
// TS/AAC/MP3 entries.
type FMP4Remuxer struct {
	logger *slog.Logger
	vendor string

	videoCodec  codec.Video
	audioCodec  codec.Audio
	initEmitted bool
	seq         uint32

	initSegmentOverride []byte
}

// NewFMP4Remuxer constructs a to-fMP4 remuxer. vendor is threaded
// through so codec selection can special-case vendor-specific
// container quirks if a future codec needs it; none currently do.
func NewFMP4Remuxer(logger *slog.Logger, vendor string) *FMP4Remuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FMP4Remuxer{logger: logger, vendor: vendor}
}

// Remux builds an init segment (once, or whenever ResetInitSegment was
// called since) plus a media fragment from the demuxed tracks.
func (r *FMP4Remuxer) Remux(result *transmux.DemuxResult, timeOffset float64, _ bool, flush bool, _ string) (*transmux.RemuxResult, error) {
	if result == nil || result.Empty() {
		if flush {
			return &transmux.RemuxResult{}, nil
		}
		return &transmux.RemuxResult{}, nil
	}

	out := &transmux.RemuxResult{}

	if !r.initEmitted {
		init, err := r.buildInit(result)
		if err != nil {
			return nil, fmt.Errorf("remux: building init segment: %w", err)
		}
		out.InitSegment = init
		r.initEmitted = true
	}

	part, independent, err := r.buildFragment(result)
	if err != nil {
		return nil, fmt.Errorf("remux: building fragment: %w", err)
	}
	out.Payload = part
	out.Independent = independent

	return out, nil
}

func (r *FMP4Remuxer) buildInit(result *transmux.DemuxResult) ([]byte, error) {
	if len(r.initSegmentOverride) > 0 {
		return r.initSegmentOverride, nil
	}

	init := &fmp4.Init{}
	trackID := 1

	if result.VideoTrack != nil {
		r.videoCodec = codec.Video(result.VideoTrack.Codec)
		c, err := videoMP4Codec(r.videoCodec, result.VideoTrack)
		if err != nil {
			return nil, err
		}
		init.Tracks = append(init.Tracks, &fmp4.InitTrack{
			ID: trackID, TimeScale: 90000, Codec: c,
		})
		trackID++
	}

	if result.AudioTrack != nil {
		r.audioCodec = codec.Audio(result.AudioTrack.Codec)
		c, err := audioMP4Codec(r.audioCodec)
		if err != nil {
			return nil, err
		}
		init.Tracks = append(init.Tracks, &fmp4.InitTrack{
			ID: trackID, TimeScale: 90000, Codec: c,
		})
	}

	buf := &seekableBuffer{}
	if err := init.Marshal(buf); err != nil {
		return nil, fmt.Errorf("marshaling init: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *FMP4Remuxer) buildFragment(result *transmux.DemuxResult) ([]byte, bool, error) {
	part := &fmp4.Part{}
	independent := false
	trackID := 1

	if result.VideoTrack != nil && len(result.VideoTrack.Samples) > 0 {
		pt, err := videoPartTrack(trackID, result.VideoTrack)
		if err != nil {
			return nil, false, err
		}
		part.Tracks = append(part.Tracks, pt)
		independent = result.VideoTrack.Samples[0].Keyframe
		trackID++
	}

	if result.AudioTrack != nil && len(result.AudioTrack.Samples) > 0 {
		pt := audioPartTrack(trackID, result.AudioTrack)
		part.Tracks = append(part.Tracks, pt)
		if result.VideoTrack == nil {
			independent = true
		}
	}

	if len(part.Tracks) == 0 {
		return nil, false, nil
	}

	buf := &seekableBuffer{}
	if err := part.Marshal(buf); err != nil {
		return nil, false, fmt.Errorf("marshaling fragment: %w", err)
	}
	r.seq++
	return buf.Bytes(), independent, nil
}

func videoMP4Codec(v codec.Video, track *transmux.Track) (mp4.Codec, error) {
	switch v {
	case codec.VideoH264:
		return &mp4.CodecH264{}, nil
	case codec.VideoH265:
		return &mp4.CodecH265{}, nil
	case codec.VideoAV1:
		return &mp4.CodecAV1{}, nil
	case codec.VideoVP9:
		return &mp4.CodecVP9{}, nil
	default:
		return nil, fmt.Errorf("remux: unsupported video codec %q for fMP4 output", v)
	}
}

func audioMP4Codec(a codec.Audio) (mp4.Codec, error) {
	switch a {
	case codec.AudioAAC:
		return &mp4.CodecMPEG4Audio{}, nil
	case codec.AudioOpus:
		return &mp4.CodecOpus{}, nil
	case codec.AudioAC3:
		return &mp4.CodecAC3{}, nil
	case codec.AudioEAC3:
		return &mp4.CodecEAC3{}, nil
	case codec.AudioMP3:
		return &mp4.CodecMPEG1Audio{}, nil
	default:
		return nil, fmt.Errorf("remux: unsupported audio codec %q for fMP4 output", a)
	}
}

func videoPartTrack(id int, track *transmux.Track) (*fmp4.PartTrack, error) {
	pt := &fmp4.PartTrack{ID: id}
	if len(track.Samples) > 0 {
		pt.BaseTime = uint64(track.Samples[0].DTS)
	}
	for i, s := range track.Samples {
		sample := &fmp4.Sample{
			Payload:         s.Data,
			IsNonSyncSample: !s.Keyframe,
		}
		if s.Duration > 0 {
			sample.Duration = uint32(s.Duration)
		} else if i+1 < len(track.Samples) {
			sample.Duration = uint32(track.Samples[i+1].DTS - s.DTS)
		}
		sample.PTSOffset = int32(s.PTS - s.DTS)
		pt.Samples = append(pt.Samples, sample)
	}
	return pt, nil
}

func audioPartTrack(id int, track *transmux.Track) *fmp4.PartTrack {
	pt := &fmp4.PartTrack{ID: id}
	if len(track.Samples) > 0 {
		pt.BaseTime = uint64(track.Samples[0].PTS)
	}
	for i, s := range track.Samples {
		sample := &fmp4.Sample{Payload: s.Data}
		if s.Duration > 0 {
			sample.Duration = uint32(s.Duration)
		} else if i+1 < len(track.Samples) {
			sample.Duration = uint32(track.Samples[i+1].PTS - s.PTS)
		}
		pt.Samples = append(pt.Samples, sample)
	}
	return pt
}

// ResetInitSegment replaces the remuxer's codec identity and, when the
// caller supplies literal init segment bytes, forwards them as-is on
// the next Remux call instead of synthesizing one.
func (r *FMP4Remuxer) ResetInitSegment(initSegmentData []byte, audioCodec, videoCodec string) {
	r.initEmitted = false
	r.initSegmentOverride = initSegmentData
	if videoCodec != "" {
		r.videoCodec = codec.Video(videoCodec)
	}
	if audioCodec != "" {
		r.audioCodec = codec.Audio(audioCodec)
	}
}

func (r *FMP4Remuxer) ResetTimeStamp(_ int64) {}
func (r *FMP4Remuxer) ResetNextTimestamp()    {}
func (r *FMP4Remuxer) Destroy()               {}
