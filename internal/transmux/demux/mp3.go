package demux

import (
	"fmt"
	"log/slog"

	"github.com/flowreel/transmux/internal/codec"
	"github.com/flowreel/transmux/internal/transmux"
)

// mp3BitrateKbps is the MPEG-1 Layer III bitrate table indexed by the
// 4-bit bitrate_index field (ISO/IEC 11172-3).
var mp3BitrateKbps = [...]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}

var mp3SampleRates = [...]int{44100, 48000, 32000}

// ProbeMP3 reports whether data begins with an MPEG audio frame sync
// (11 bits set) for MPEG-1 Layer III specifically. mediacommon carries
// CodecMPEG1Audio for the MPEG-TS container path only, not a bare-stream
// frame parser, so this probe and the frame walker below parse raw MP3
// frames directly against the format's published tables.
func ProbeMP3(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0 && (data[1]>>3)&0x03 == 0x03 && (data[1]>>1)&0x03 == 0x01
}

// MinProbeBytesMP3 is the minimum prefix ProbeMP3 needs: one 4-byte
// frame header.
const MinProbeBytesMP3 = 4

type mp3FrameHeader struct {
	frameLength int
}

func parseMP3Header(data []byte) (*mp3FrameHeader, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("mp3: header too short")
	}
	if !ProbeMP3(data) {
		return nil, fmt.Errorf("mp3: bad sync word")
	}

	bitrateIdx := int(data[2] >> 4)
	sampleRateIdx := int((data[2] >> 2) & 0x03)
	padding := int((data[2] >> 1) & 0x01)

	if bitrateIdx == 0 || bitrateIdx >= len(mp3BitrateKbps) || sampleRateIdx >= len(mp3SampleRates) {
		return nil, fmt.Errorf("mp3: reserved bitrate or sample rate index")
	}

	bitrate := mp3BitrateKbps[bitrateIdx] * 1000
	sampleRate := mp3SampleRates[sampleRateIdx]

	// Layer III frame length formula (144 * bitrate / sampleRate + padding).
	frameLength := 144*bitrate/sampleRate + padding
	if frameLength <= 0 {
		return nil, fmt.Errorf("mp3: computed non-positive frame length")
	}

	return &mp3FrameHeader{frameLength: frameLength}, nil
}

// MP3Demuxer demuxes a naked MPEG-1 Layer III elementary stream by
// walking frame boundaries computed from each frame's own header,
// since MP3 carries no container-level sample table.
type MP3Demuxer struct {
	logger  *slog.Logger
	residue []byte
}

// NewMP3Demuxer constructs an MP3 demuxer.
func NewMP3Demuxer(logger *slog.Logger) *MP3Demuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MP3Demuxer{logger: logger}
}

func (d *MP3Demuxer) Demux(data []byte, timeOffset float64, _ bool, _ bool) (*transmux.DemuxResult, error) {
	buf := append(d.residue, data...)
	d.residue = nil

	pts := int64(timeOffset * 90000)
	var samples []transmux.Sample

	offset := 0
	for offset+4 <= len(buf) {
		hdr, err := parseMP3Header(buf[offset:])
		if err != nil {
			next := findNextMP3Sync(buf, offset+1)
			if next < 0 {
				break
			}
			offset = next
			continue
		}
		if offset+hdr.frameLength > len(buf) {
			break
		}

		frame := buf[offset : offset+hdr.frameLength]
		samples = append(samples, transmux.Sample{PTS: pts, DTS: pts, Data: append([]byte(nil), frame...), Keyframe: true})
		pts += audioFrameDuration90k

		offset += hdr.frameLength
	}

	if offset < len(buf) {
		d.residue = append([]byte(nil), buf[offset:]...)
	}

	if len(samples) == 0 {
		return &transmux.DemuxResult{}, nil
	}
	return &transmux.DemuxResult{AudioTrack: &transmux.Track{
		Codec: string(codec.AudioMP3), Timescale: 90000, Samples: samples,
	}}, nil
}

func findNextMP3Sync(buf []byte, from int) int {
	for i := from; i+1 < len(buf); i++ {
		if ProbeMP3(buf[i:]) {
			return i
		}
	}
	return -1
}

func (d *MP3Demuxer) DemuxSampleAES(_ []byte, _ *transmux.KeyData, _ float64) *transmux.DemuxFuture {
	f := transmux.NewDemuxFuture()
	f.Resolve(nil, fmt.Errorf("mp3: SAMPLE-AES is not applicable to a naked MP3 stream"))
	return f
}

func (d *MP3Demuxer) Flush(timeOffset float64) (*transmux.DemuxResult, error) {
	if len(d.residue) == 0 {
		return &transmux.DemuxResult{}, nil
	}
	return d.Demux(nil, timeOffset, true, true)
}

func (d *MP3Demuxer) ResetInitSegment(_ []byte, _, _ string, _ float64) {}
func (d *MP3Demuxer) ResetTimeStamp(_ int64)                            {}
func (d *MP3Demuxer) ResetContiguity()                                  { d.residue = nil }
func (d *MP3Demuxer) Destroy()                                          {}
