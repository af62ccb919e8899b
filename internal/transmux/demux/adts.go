package demux

import (
	"fmt"
	"log/slog"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"

	"github.com/flowreel/transmux/internal/codec"
	"github.com/flowreel/transmux/internal/transmux"
)

// adtsSampleRates is the ADTS sampling_frequency_index lookup table
// (ISO/IEC 13818-7 Table 1.18).
var adtsSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// ProbeADTS reports whether data begins with an ADTS AAC sync word
// (0xFFF, 12 bits) and a plausible header, distinguishing raw ADTS
// streams from MPEG-TS (which also starts with arbitrary bytes but
// never an ADTS sync word at offset 0 in a segment boundary) and from
// MP3 (whose frame sync is 0xFFE, an 11-bit pattern occupying the same
// leading byte but a different low nibble).
func ProbeADTS(data []byte) bool {
	if len(data) < 7 {
		return false
	}
	return data[0] == 0xFF && data[1]&0xF0 == 0xF0 && data[1]&0x06 == 0
}

// MinProbeBytesADTS is the minimum prefix ProbeADTS needs: one 7-byte
// fixed ADTS header.
const MinProbeBytesADTS = 7

// adtsHeader is the decoded fixed + variable portion of one ADTS frame
// header needed to recover frame length and channel layout.
type adtsHeader struct {
	profile           int
	sampleRateIdx     int
	channelConfig     int
	frameLength       int
	headerLength      int // 7 without CRC, 9 with
}

func parseADTSHeader(data []byte) (*adtsHeader, error) {
	if len(data) < 7 {
		return nil, fmt.Errorf("adts: header too short: %d bytes", len(data))
	}
	if data[0] != 0xFF || data[1]&0xF0 != 0xF0 {
		return nil, fmt.Errorf("adts: bad sync word")
	}

	protectionAbsent := data[1] & 0x01
	profile := int(data[2]>>6) + 1
	sampleRateIdx := int((data[2] >> 2) & 0x0F)
	channelConfig := int((data[2]&0x01)<<2 | (data[3]>>6)&0x03)
	frameLength := int(data[3]&0x03)<<11 | int(data[4])<<3 | int(data[5]>>5)

	headerLength := 7
	if protectionAbsent == 0 {
		headerLength = 9
	}

	if sampleRateIdx >= len(adtsSampleRates) {
		return nil, fmt.Errorf("adts: invalid sampling_frequency_index %d", sampleRateIdx)
	}

	return &adtsHeader{
		profile:       profile,
		sampleRateIdx: sampleRateIdx,
		channelConfig: channelConfig,
		frameLength:   frameLength,
		headerLength:  headerLength,
	}, nil
}

// ADTSDemuxer demuxes a raw ADTS elementary stream directly, without a
// container, used when the probe table identifies the segment as
// naked AAC (some live packagers emit ADTS segments with no TS/fMP4
// wrapper at all).
type ADTSDemuxer struct {
	logger         *slog.Logger
	residue        []byte
	channelCount   int
	sampleRate     int
	resolvedConfig bool
}

// NewADTSDemuxer constructs an ADTS demuxer.
func NewADTSDemuxer(logger *slog.Logger) *ADTSDemuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ADTSDemuxer{logger: logger}
}

// Demux splits data into ADTS frames. Any trailing partial frame is
// buffered as residue and prepended on the next call.
func (d *ADTSDemuxer) Demux(data []byte, timeOffset float64, _ bool, _ bool) (*transmux.DemuxResult, error) {
	buf := append(d.residue, data...)
	d.residue = nil

	pts := int64(timeOffset * 90000)
	var samples []transmux.Sample

	offset := 0
	for offset+7 <= len(buf) {
		hdr, err := parseADTSHeader(buf[offset:])
		if err != nil {
			// Resync by scanning forward for the next sync word rather
			// than aborting the whole call on one corrupt frame.
			next := findNextSync(buf, offset+1)
			if next < 0 {
				break
			}
			offset = next
			continue
		}
		if offset+hdr.frameLength > len(buf) {
			break
		}

		if !d.resolvedConfig {
			d.resolveChannelConfig(hdr, buf[offset:offset+hdr.frameLength])
		}

		payload := buf[offset+hdr.headerLength : offset+hdr.frameLength]
		samples = append(samples, transmux.Sample{PTS: pts, DTS: pts, Data: append([]byte(nil), payload...), Keyframe: true})
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
		Codec: string(codec.AudioAAC), Timescale: 90000, Samples: samples,
	}}, nil
}

func findNextSync(buf []byte, from int) int {
	for i := from; i+1 < len(buf); i++ {
		if buf[i] == 0xFF && buf[i+1]&0xF0 == 0xF0 {
			return i
		}
	}
	return -1
}

// resolveChannelConfig handles ADTS channel_config=0, which defers
// channel layout to a program_config_element inside the raw_data_block
// rather than the fixed header — mediacommon's ResolveChannelCount
// does this parsing for both the raw ADTS path here and the MPEG-TS
// elementary-stream path.
func (d *ADTSDemuxer) resolveChannelConfig(hdr *adtsHeader, frame []byte) {
	d.resolvedConfig = true
	d.sampleRate = adtsSampleRates[hdr.sampleRateIdx]
	if hdr.channelConfig != 0 {
		d.channelCount = hdr.channelConfig
		return
	}
	count, err := mpeg4audio.ResolveChannelCount(frame, nil)
	if err != nil {
		d.logger.Warn("adts: failed to resolve channel_config=0", slog.String("error", err.Error()))
		d.channelCount = 2
		return
	}
	d.channelCount = count
}

func (d *ADTSDemuxer) DemuxSampleAES(_ []byte, _ *transmux.KeyData, _ float64) *transmux.DemuxFuture {
	f := transmux.NewDemuxFuture()
	f.Resolve(nil, fmt.Errorf("adts: SAMPLE-AES is not applicable to a naked ADTS stream"))
	return f
}

func (d *ADTSDemuxer) Flush(timeOffset float64) (*transmux.DemuxResult, error) {
	if len(d.residue) == 0 {
		return &transmux.DemuxResult{}, nil
	}
	return d.Demux(nil, timeOffset, true, true)
}

func (d *ADTSDemuxer) ResetInitSegment(_ []byte, _, _ string, _ float64) {}
func (d *ADTSDemuxer) ResetTimeStamp(_ int64)                            {}
func (d *ADTSDemuxer) ResetContiguity()                                  { d.residue = nil }
func (d *ADTSDemuxer) Destroy()                                          {}
