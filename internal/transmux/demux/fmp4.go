package demux

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/fmp4"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mp4"

	"github.com/flowreel/transmux/internal/codec"
	"github.com/flowreel/transmux/internal/transmux"
)

// ProbeFMP4 reports whether data begins with a fragmented MP4 box
// sequence: its first box header names an ftyp, styp, moov or moof box.
// Later boxes are not examined. Checking only the first box's type is
// enough to win the probe-table race against
// TS/ADTS/MP3, whose first bytes never form a valid ISO BMFF box
// header.
func ProbeFMP4(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	boxType := string(data[4:8])
	return boxType == "ftyp" || boxType == "styp" || boxType == "moov" || boxType == "moof"
}

// MinProbeBytesFMP4 is the minimum prefix ProbeFMP4 needs: one 8-byte
// box header.
const MinProbeBytesFMP4 = 8

// FMP4Demuxer parses fragmented MP4 input box-by-box, extracting
// elementary-stream samples from each moof+mdat fragment. It backs both
// the passthrough path (where PassthroughRemuxer re-fragments the
// extracted samples through the to-fMP4 remuxer) and the
// rarer case of a caller forcing a true re-remux of a VP9/AV1 fMP4
// source.
type FMP4Demuxer struct {
	logger *slog.Logger

	buf bytes.Buffer

	init           *fmp4.Init
	videoTrackID   int
	audioTrackID   int
	videoTimescale uint32
	audioTimescale uint32
	videoCodec     codec.Video
	audioCodec     codec.Audio

	h264SPS, h264PPS           []byte
	h265VPS, h265SPS, h265PPS  []byte
	initDone                   bool
}

// NewFMP4Demuxer constructs an fMP4 demuxer.
func NewFMP4Demuxer(logger *slog.Logger) *FMP4Demuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FMP4Demuxer{logger: logger}
}

// Demux buffers data and extracts any complete boxes it now contains.
func (d *FMP4Demuxer) Demux(data []byte, _ float64, _ bool, _ bool) (*transmux.DemuxResult, error) {
	d.buf.Write(data)
	return d.parse()
}

func (d *FMP4Demuxer) parse() (*transmux.DemuxResult, error) {
	result := &transmux.DemuxResult{}

	for d.buf.Len() >= 8 {
		header := d.buf.Bytes()[:8]
		boxSize := uint32(header[0])<<24 | uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3])
		boxType := string(header[4:8])

		if boxSize == 1 {
			if d.buf.Len() < 16 {
				return result, nil
			}
			ext := d.buf.Bytes()[:16]
			boxSize = uint32(binary.BigEndian.Uint64(ext[8:16]))
		}

		if boxSize == 0 || uint32(d.buf.Len()) < boxSize {
			return result, nil
		}

		if boxType == "moof" {
			if uint32(d.buf.Len()) < boxSize+8 {
				return result, nil
			}
			mdatHeader := d.buf.Bytes()[boxSize : boxSize+8]
			mdatSize := uint32(mdatHeader[0])<<24 | uint32(mdatHeader[1])<<16 | uint32(mdatHeader[2])<<8 | uint32(mdatHeader[3])
			mdatType := string(mdatHeader[4:8])
			if mdatType != "mdat" {
				d.buf.Next(int(boxSize))
				continue
			}
			total := boxSize + mdatSize
			if uint32(d.buf.Len()) < total {
				return result, nil
			}
			fragment := make([]byte, total)
			_, _ = d.buf.Read(fragment)
			if err := d.parseFragment(fragment, result); err != nil {
				return nil, err
			}
			continue
		}

		boxData := make([]byte, boxSize)
		_, _ = d.buf.Read(boxData)

		switch boxType {
		case "moov":
			if err := d.parseInit(boxData); err != nil {
				return nil, fmt.Errorf("fmp4 demux: parsing moov: %w", err)
			}
		}
	}

	return result, nil
}

func (d *FMP4Demuxer) parseInit(moovData []byte) error {
	d.init = &fmp4.Init{}
	if err := d.init.Unmarshal(bytes.NewReader(moovData)); err != nil {
		return err
	}

	for _, track := range d.init.Tracks {
		switch c := track.Codec.(type) {
		case *mp4.CodecH265:
			d.videoTrackID, d.videoTimescale = track.ID, track.TimeScale
			d.videoCodec = codec.VideoH265
			d.h265VPS, d.h265SPS, d.h265PPS = c.VPS, c.SPS, c.PPS
		case *mp4.CodecH264:
			d.videoTrackID, d.videoTimescale = track.ID, track.TimeScale
			d.videoCodec = codec.VideoH264
			d.h264SPS, d.h264PPS = c.SPS, c.PPS
		case *mp4.CodecAV1:
			d.videoTrackID, d.videoTimescale = track.ID, track.TimeScale
			d.videoCodec = codec.VideoAV1
		case *mp4.CodecVP9:
			d.videoTrackID, d.videoTimescale = track.ID, track.TimeScale
			d.videoCodec = codec.VideoVP9
		case *mp4.CodecMPEG4Audio:
			d.audioTrackID, d.audioTimescale = track.ID, track.TimeScale
			d.audioCodec = codec.AudioAAC
		case *mp4.CodecOpus:
			d.audioTrackID, d.audioTimescale = track.ID, track.TimeScale
			d.audioCodec = codec.AudioOpus
		case *mp4.CodecAC3:
			d.audioTrackID, d.audioTimescale = track.ID, track.TimeScale
			d.audioCodec = codec.AudioAC3
		case *mp4.CodecEAC3:
			d.audioTrackID, d.audioTimescale = track.ID, track.TimeScale
			d.audioCodec = codec.AudioEAC3
		case *mp4.CodecMPEG1Audio:
			d.audioTrackID, d.audioTimescale = track.ID, track.TimeScale
			d.audioCodec = codec.AudioMP3
		}
	}

	d.initDone = true
	return nil
}

func (d *FMP4Demuxer) parseFragment(data []byte, result *transmux.DemuxResult) error {
	if !d.initDone {
		d.logger.Warn("fmp4 demux: fragment received before init")
		return nil
	}

	var parts fmp4.Parts
	if err := parts.Unmarshal(data); err != nil {
		return fmt.Errorf("unmarshaling fragment: %w", err)
	}

	for _, part := range parts {
		for _, track := range part.Tracks {
			switch track.ID {
			case d.videoTrackID:
				d.appendVideoSamples(track, result)
			case d.audioTrackID:
				d.appendAudioSamples(track, result)
			}
		}
	}
	return nil
}

func (d *FMP4Demuxer) appendVideoSamples(track *fmp4.PartTrack, result *transmux.DemuxResult) {
	timescale := d.videoTimescale
	if timescale == 0 {
		timescale = 90000
	}
	if result.VideoTrack == nil {
		result.VideoTrack = &transmux.Track{Codec: string(d.videoCodec), Timescale: 90000}
	}

	baseTime := track.BaseTime
	isH264 := len(d.h264SPS) > 0 || len(d.h264PPS) > 0
	isH265 := len(d.h265VPS) > 0 || len(d.h265SPS) > 0 || len(d.h265PPS) > 0

	for i, sample := range track.Samples {
		dts := int64(baseTime * 90000 / uint64(timescale))
		pts := dts + int64(sample.PTSOffset)*90000/int64(timescale)
		keyframe := !sample.IsNonSyncSample || i == 0

		var payload []byte
		switch {
		case isH264:
			payload = lengthPrefixedToAnnexB(sample.Payload, 4, keyframe, [][]byte{d.h264SPS, d.h264PPS})
		case isH265:
			payload = lengthPrefixedToAnnexB(sample.Payload, 4, keyframe, [][]byte{d.h265VPS, d.h265SPS, d.h265PPS})
		default:
			payload = sample.Payload
		}

		result.VideoTrack.Samples = append(result.VideoTrack.Samples, transmux.Sample{
			PTS: pts, DTS: dts, Data: payload, Keyframe: keyframe,
		})
		baseTime += uint64(sample.Duration)
	}
}

func (d *FMP4Demuxer) appendAudioSamples(track *fmp4.PartTrack, result *transmux.DemuxResult) {
	timescale := d.audioTimescale
	if timescale == 0 {
		timescale = 90000
	}
	if result.AudioTrack == nil {
		result.AudioTrack = &transmux.Track{Codec: string(d.audioCodec), Timescale: 90000}
	}

	baseTime := track.BaseTime
	for _, sample := range track.Samples {
		pts := int64(baseTime * 90000 / uint64(timescale))
		result.AudioTrack.Samples = append(result.AudioTrack.Samples, transmux.Sample{
			PTS: pts, DTS: pts, Data: sample.Payload, Keyframe: true,
		})
		baseTime += uint64(sample.Duration)
	}
}

// lengthPrefixedToAnnexB converts avc1/hvc1 length-prefixed NAL units
// to Annex B start-code-prefixed form, prepending the given parameter
// sets to every keyframe. Whether the sample already carries its own
// copy of them is not checked.
func lengthPrefixedToAnnexB(payload []byte, nalLengthSize int, keyframe bool, paramSets [][]byte) []byte {
	var out bytes.Buffer

	if keyframe {
		for _, ps := range paramSets {
			if len(ps) == 0 {
				continue
			}
			out.Write(annexBStartCode)
			out.Write(ps)
		}
	}

	offset := 0
	for offset+nalLengthSize <= len(payload) {
		nalLen := int(binary.BigEndian.Uint32(payload[offset:]))
		offset += nalLengthSize
		if offset+nalLen > len(payload) {
			break
		}
		out.Write(annexBStartCode)
		out.Write(payload[offset : offset+nalLen])
		offset += nalLen
	}

	return out.Bytes()
}

func (d *FMP4Demuxer) DemuxSampleAES(_ []byte, _ *transmux.KeyData, _ float64) *transmux.DemuxFuture {
	f := transmux.NewDemuxFuture()
	f.Resolve(nil, fmt.Errorf("fmp4 demux: SAMPLE-AES applies at the TS PES layer, not to an already-muxed fMP4 source"))
	return f
}

func (d *FMP4Demuxer) Flush(_ float64) (*transmux.DemuxResult, error) {
	return &transmux.DemuxResult{}, nil
}

func (d *FMP4Demuxer) ResetInitSegment(_ []byte, _, _ string, _ float64) {
	d.init = nil
	d.initDone = false
}
func (d *FMP4Demuxer) ResetTimeStamp(_ int64) {}
func (d *FMP4Demuxer) ResetContiguity()       {}
func (d *FMP4Demuxer) Destroy()               { d.buf.Reset() }
