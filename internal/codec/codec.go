// Package codec provides a unified codec registry for video and audio
// elementary stream codecs used by the probe table and fMP4 remuxer.
package codec

import "strings"

// Video represents a video elementary stream codec.
type Video string

// Video codec constants.
const (
	VideoH264 Video = "h264" // H.264/AVC
	VideoH265 Video = "h265" // H.265/HEVC
	VideoVP8  Video = "vp8"  // VP8
	VideoVP9  Video = "vp9"  // VP9 (fMP4 only)
	VideoAV1  Video = "av1"  // AV1 (fMP4 only)
	// Legacy/less common codecs (identification only, not remux targets).
	VideoMPEG1  Video = "mpeg1"
	VideoMPEG2  Video = "mpeg2"
	VideoMPEG4  Video = "mpeg4"
	VideoVC1    Video = "vc1"
	VideoTheora Video = "theora"
)

// Audio represents an audio elementary stream codec.
type Audio string

// Audio codec constants.
const (
	AudioAAC    Audio = "aac"    // AAC
	AudioMP3    Audio = "mp3"    // MPEG-1/2 Layer III
	AudioAC3    Audio = "ac3"    // Dolby Digital (AC-3)
	AudioEAC3   Audio = "eac3"   // Dolby Digital Plus (E-AC-3)
	AudioOpus   Audio = "opus"   // Opus (fMP4 only)
	AudioVorbis Audio = "vorbis" // Vorbis
	AudioFLAC   Audio = "flac"   // FLAC
	AudioDTS    Audio = "dts"    // DTS
	AudioTrueHD Audio = "truehd" // Dolby TrueHD
	AudioPCM    Audio = "pcm"    // PCM
)

// String returns the string representation of the video codec.
func (v Video) String() string {
	return string(v)
}

// String returns the string representation of the audio codec.
func (a Audio) String() string {
	return string(a)
}

// videoInfo contains metadata about a video codec.
type videoInfo struct {
	Name Video
	// Aliases holds all known spellings (HLS codec-string prefixes, common
	// shorthand) that map to this codec.
	Aliases []string
	// FMP4Only is true when the codec cannot be carried in an MPEG-TS stream.
	FMP4Only bool
	// Demuxable reports whether the wired demuxer stack can produce samples
	// for this codec; updated at init time by mediacommon_detect.go against the actual
	// mediacommon build.
	Demuxable bool
	// MPEGTSStreamType is the stream_type value used in the PMT, 0 if unused.
	MPEGTSStreamType uint8
}

// audioInfo contains metadata about an audio codec.
type audioInfo struct {
	Name             Audio
	Aliases          []string
	FMP4Only         bool
	Demuxable        bool
	MPEGTSStreamType uint8
}

// MPEG-TS stream type constants (ISO/IEC 13818-1 + registered private values).
const (
	StreamTypeH264 uint8 = 0x1B
	StreamTypeH265 uint8 = 0x24
	StreamTypeAAC  uint8 = 0x0F
	StreamTypeAC3  uint8 = 0x81
	StreamTypeEAC3 uint8 = 0x87
	StreamTypeMP3  uint8 = 0x03
)

var videoRegistry = map[Video]*videoInfo{
	VideoH264: {
		Name:             VideoH264,
		Aliases:          []string{"h264", "avc", "avc1", "avc3", "h.264"},
		FMP4Only:         false,
		Demuxable:        true,
		MPEGTSStreamType: StreamTypeH264,
	},
	VideoH265: {
		Name:             VideoH265,
		Aliases:          []string{"h265", "hevc", "hev1", "hvc1", "h.265"},
		FMP4Only:         false,
		Demuxable:        true,
		MPEGTSStreamType: StreamTypeH265,
	},
	VideoVP8: {
		Name:      VideoVP8,
		Aliases:   []string{"vp8"},
		FMP4Only:  true,
		Demuxable: false,
	},
	VideoVP9: {
		Name:      VideoVP9,
		Aliases:   []string{"vp9", "vp09"},
		FMP4Only:  true,
		Demuxable: false,
	},
	VideoAV1: {
		Name:      VideoAV1,
		Aliases:   []string{"av1", "av01"},
		FMP4Only:  true,
		Demuxable: false,
	},
	VideoMPEG1: {
		Name:             VideoMPEG1,
		Aliases:          []string{"mpeg1", "mpeg1video"},
		Demuxable:        true,
		MPEGTSStreamType: 0x01,
	},
	VideoMPEG2: {
		Name:             VideoMPEG2,
		Aliases:          []string{"mpeg2", "mpeg2video"},
		Demuxable:        true,
		MPEGTSStreamType: 0x02,
	},
	VideoMPEG4: {
		Name:             VideoMPEG4,
		Aliases:          []string{"mpeg4"},
		Demuxable:        true,
		MPEGTSStreamType: 0x10,
	},
	VideoVC1: {
		Name:      VideoVC1,
		Aliases:   []string{"vc1", "wmv3"},
		Demuxable: false,
	},
	VideoTheora: {
		Name:      VideoTheora,
		Aliases:   []string{"theora"},
		FMP4Only:  true,
		Demuxable: false,
	},
}

var audioRegistry = map[Audio]*audioInfo{
	AudioAAC: {
		Name:             AudioAAC,
		Aliases:          []string{"aac", "mp4a"},
		Demuxable:        true,
		MPEGTSStreamType: StreamTypeAAC,
	},
	AudioMP3: {
		Name:             AudioMP3,
		Aliases:          []string{"mp3", "mp3float"},
		Demuxable:        true,
		MPEGTSStreamType: StreamTypeMP3,
	},
	AudioAC3: {
		Name:             AudioAC3,
		Aliases:          []string{"ac3", "ac-3", "a52"},
		Demuxable:        true,
		MPEGTSStreamType: StreamTypeAC3,
	},
	AudioEAC3: {
		Name:             AudioEAC3,
		Aliases:          []string{"eac3", "ec-3"},
		Demuxable:        false, // upgraded to true if the mediacommon fork supports it, see mediacommon_detect.go
		MPEGTSStreamType: StreamTypeEAC3,
	},
	AudioOpus: {
		Name:      AudioOpus,
		Aliases:   []string{"opus"},
		FMP4Only:  true,
		Demuxable: true,
	},
	AudioVorbis: {
		Name:      AudioVorbis,
		Aliases:   []string{"vorbis"},
		FMP4Only:  true,
		Demuxable: false,
	},
	AudioFLAC: {
		Name:      AudioFLAC,
		Aliases:   []string{"flac"},
		FMP4Only:  true,
		Demuxable: false,
	},
	AudioDTS: {
		Name:             AudioDTS,
		Aliases:          []string{"dts", "dca"},
		Demuxable:        false,
		MPEGTSStreamType: 0x82,
	},
	AudioTrueHD: {
		Name:      AudioTrueHD,
		Aliases:   []string{"truehd", "mlp"},
		FMP4Only:  true,
		Demuxable: false,
	},
	AudioPCM: {
		Name:      AudioPCM,
		Aliases:   []string{"pcm", "pcm_s16le", "pcm_s24le", "pcm_s32le"},
		FMP4Only:  true,
		Demuxable: false,
	},
}

var videoAliasIndex map[string]Video
var audioAliasIndex map[string]Audio

func init() {
	videoAliasIndex = make(map[string]Video)
	for codec, info := range videoRegistry {
		for _, alias := range info.Aliases {
			videoAliasIndex[strings.ToLower(alias)] = codec
		}
	}

	audioAliasIndex = make(map[string]Audio)
	for codec, info := range audioRegistry {
		for _, alias := range info.Aliases {
			audioAliasIndex[strings.ToLower(alias)] = codec
		}
	}
}

// ParseVideo parses a codec name or alias to a Video codec.
func ParseVideo(s string) (Video, bool) {
	if s == "" {
		return "", false
	}
	codec, ok := videoAliasIndex[strings.ToLower(strings.TrimSpace(s))]
	return codec, ok
}

// ParseAudio parses a codec name or alias to an Audio codec.
func ParseAudio(s string) (Audio, bool) {
	if s == "" {
		return "", false
	}
	codec, ok := audioAliasIndex[strings.ToLower(strings.TrimSpace(s))]
	return codec, ok
}

// Normalize converts any codec string (alias or HLS codec string prefix) to
// its canonical form. Returns the input unchanged if not recognized.
func Normalize(name string) string {
	if name == "" {
		return name
	}
	if codec, ok := ParseVideo(name); ok {
		return string(codec)
	}
	if codec, ok := ParseAudio(name); ok {
		return string(codec)
	}
	return NormalizeHLSCodec(name)
}

// NormalizeHLSCodec normalizes codec strings from HLS/DASH manifests
// (the CODECS attribute of an EXT-X-STREAM-INF tag) to canonical form.
// Those strings carry version/profile info, e.g. "avc1.64001f", "mp4a.40.2".
func NormalizeHLSCodec(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)

	if len(lower) >= 4 {
		switch lower[:4] {
		case "avc1", "avc3":
			return string(VideoH264)
		case "hev1", "hvc1":
			return string(VideoH265)
		case "mp4a":
			return string(AudioAAC)
		case "vp09":
			return string(VideoVP9)
		case "av01":
			return string(VideoAV1)
		case "ac-3":
			return string(AudioAC3)
		case "ec-3":
			return string(AudioEAC3)
		}
	}

	return name
}

// IsFMP4Only returns true if the video codec cannot be carried in MPEG-TS.
func (v Video) IsFMP4Only() bool {
	info, ok := videoRegistry[v]
	return ok && info.FMP4Only
}

// IsFMP4Only returns true if the audio codec cannot be carried in MPEG-TS.
func (a Audio) IsFMP4Only() bool {
	info, ok := audioRegistry[a]
	return ok && info.FMP4Only
}

// IsDemuxable returns true if the wired demuxer stack can produce samples
// for this video codec.
func (v Video) IsDemuxable() bool {
	info, ok := videoRegistry[v]
	if !ok {
		return true // unknown codecs default to demuxable; most are H.264/H.265
	}
	return info.Demuxable
}

// IsDemuxable returns true if the wired demuxer stack can produce samples
// for this audio codec.
func (a Audio) IsDemuxable() bool {
	info, ok := audioRegistry[a]
	if !ok {
		return false
	}
	return info.Demuxable
}

// MPEGTSStreamType returns the PMT stream_type for the video codec, or 0.
func (v Video) MPEGTSStreamType() uint8 {
	info, ok := videoRegistry[v]
	if !ok {
		return 0
	}
	return info.MPEGTSStreamType
}

// MPEGTSStreamType returns the PMT stream_type for the audio codec, or 0.
func (a Audio) MPEGTSStreamType() uint8 {
	info, ok := audioRegistry[a]
	if !ok {
		return 0
	}
	return info.MPEGTSStreamType
}

// IsVideoDemuxable checks if a video codec string is demuxable.
func IsVideoDemuxable(codecName string) bool {
	codec, ok := ParseVideo(codecName)
	if !ok {
		return true
	}
	return codec.IsDemuxable()
}

// IsAudioDemuxable checks if an audio codec string is demuxable.
func IsAudioDemuxable(codecName string) bool {
	codec, ok := ParseAudio(codecName)
	if !ok {
		return false
	}
	return codec.IsDemuxable()
}

// VideoRequiresFMP4 checks if a video codec string requires fMP4.
func VideoRequiresFMP4(codecName string) bool {
	codec, ok := ParseVideo(codecName)
	return ok && codec.IsFMP4Only()
}

// AudioRequiresFMP4 checks if an audio codec string requires fMP4.
func AudioRequiresFMP4(codecName string) bool {
	codec, ok := ParseAudio(codecName)
	return ok && codec.IsFMP4Only()
}

// Match returns true if two codec strings represent the same codec.
func Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(Normalize(a), Normalize(b))
}
