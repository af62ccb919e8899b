// Package codec provides runtime detection of mediacommon codec support.
// This file detects, at init time, which of the codecs the demux/remux
// packages actually construct tracks for are supported by the wired
// mediacommon build — H264/H265 video and AAC/AC3/EAC3/MP3/Opus audio.
// MPEG1/MPEG2/MPEG4 video are registered as known codec metadata in
// codec.go but no demuxer in this module ever produces a track for
// them, so they are not detected here.
package codec

import (
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts/codecs"
)

// mediacommonSupportedCodecs tracks which codec types exist in the
// wired mediacommon build, detected at init time using type assertions
// against the mpegts.Codec interface.
var mediacommonSupportedCodecs = struct {
	H264 bool
	H265 bool
	AAC  bool
	AC3  bool
	EAC3 bool
	MP3  bool
	Opus bool
}{}

func init() {
	var h264 mpegts.Codec = &mpegts.CodecH264{}
	mediacommonSupportedCodecs.H264 = !isUnsupportedCodec(h264)

	var h265 mpegts.Codec = &mpegts.CodecH265{}
	mediacommonSupportedCodecs.H265 = !isUnsupportedCodec(h265)

	var aac mpegts.Codec = &mpegts.CodecMPEG4Audio{}
	mediacommonSupportedCodecs.AAC = !isUnsupportedCodec(aac)

	var ac3 mpegts.Codec = &mpegts.CodecAC3{}
	mediacommonSupportedCodecs.AC3 = !isUnsupportedCodec(ac3)

	// EAC3 lives in the codecs subpackage rather than being aliased
	// directly into mpegts.
	var eac3 mpegts.Codec = &codecs.EAC3{}
	mediacommonSupportedCodecs.EAC3 = !isUnsupportedCodec(eac3)

	var mp3 mpegts.Codec = &mpegts.CodecMPEG1Audio{}
	mediacommonSupportedCodecs.MP3 = !isUnsupportedCodec(mp3)

	var opus mpegts.Codec = &mpegts.CodecOpus{}
	mediacommonSupportedCodecs.Opus = !isUnsupportedCodec(opus)

	updateRegistryWithDetectedSupport()
}

// isUnsupportedCodec checks if a codec is the CodecUnsupported sentinel type.
func isUnsupportedCodec(c mpegts.Codec) bool {
	_, isUnsupported := c.(*mpegts.CodecUnsupported)
	return isUnsupported
}

// updateRegistryWithDetectedSupport updates the Demuxable flags in
// videoRegistry/audioRegistry based on what mediacommon actually supports.
func updateRegistryWithDetectedSupport() {
	if info, ok := videoRegistry[VideoH264]; ok {
		info.Demuxable = mediacommonSupportedCodecs.H264
	}
	if info, ok := videoRegistry[VideoH265]; ok {
		info.Demuxable = mediacommonSupportedCodecs.H265
	}

	if info, ok := audioRegistry[AudioAAC]; ok {
		info.Demuxable = mediacommonSupportedCodecs.AAC
	}
	if info, ok := audioRegistry[AudioAC3]; ok {
		info.Demuxable = mediacommonSupportedCodecs.AC3
	}
	if info, ok := audioRegistry[AudioEAC3]; ok {
		info.Demuxable = mediacommonSupportedCodecs.EAC3
	}
	if info, ok := audioRegistry[AudioMP3]; ok {
		info.Demuxable = mediacommonSupportedCodecs.MP3
	}
	if info, ok := audioRegistry[AudioOpus]; ok {
		info.Demuxable = mediacommonSupportedCodecs.Opus
	}
}

// IsMediacommonCodecSupported returns whether the wired mediacommon
// build supports demuxing the named codec, as detected at init time.
func IsMediacommonCodecSupported(codecName string) bool {
	if video, ok := ParseVideo(codecName); ok {
		switch video {
		case VideoH264:
			return mediacommonSupportedCodecs.H264
		case VideoH265:
			return mediacommonSupportedCodecs.H265
		}
		return false
	}

	if audio, ok := ParseAudio(codecName); ok {
		switch audio {
		case AudioAAC:
			return mediacommonSupportedCodecs.AAC
		case AudioAC3:
			return mediacommonSupportedCodecs.AC3
		case AudioEAC3:
			return mediacommonSupportedCodecs.EAC3
		case AudioMP3:
			return mediacommonSupportedCodecs.MP3
		case AudioOpus:
			return mediacommonSupportedCodecs.Opus
		}
	}

	return false
}
