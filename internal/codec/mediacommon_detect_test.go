package codec

import (
	"testing"
)

func TestMediacommonCodecDetection(t *testing.T) {
	tests := []struct {
		name     string
		codec    string
		expected bool
	}{
		// Codecs the demux/remux packages actually construct tracks for
		{"H264", "h264", true},
		{"H265", "h265", true},
		{"AAC", "aac", true},
		{"AC3", "ac3", true},
		{"EAC3", "eac3", true}, // via the mediacommon fork
		{"MP3", "mp3", true},
		{"Opus", "opus", true},

		// Registered as known codec metadata but never detected/demuxed here
		{"MPEG1", "mpeg1", false},
		{"MPEG4", "mpeg4", false},

		// Genuinely unsupported
		{"DTS", "dts", false},
		{"TrueHD", "truehd", false},
		{"Vorbis", "vorbis", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsMediacommonCodecSupported(tt.codec)
			if got != tt.expected {
				t.Errorf("IsMediacommonCodecSupported(%q) = %v, want %v", tt.codec, got, tt.expected)
			}
		})
	}
}

func TestMediacommonSupportedCodecsStruct(t *testing.T) {
	t.Logf("Detected codec support:")
	t.Logf("  H264:  %v", mediacommonSupportedCodecs.H264)
	t.Logf("  H265:  %v", mediacommonSupportedCodecs.H265)
	t.Logf("  AAC:   %v", mediacommonSupportedCodecs.AAC)
	t.Logf("  AC3:   %v", mediacommonSupportedCodecs.AC3)
	t.Logf("  EAC3:  %v", mediacommonSupportedCodecs.EAC3)
	t.Logf("  MP3:   %v", mediacommonSupportedCodecs.MP3)
	t.Logf("  Opus:  %v", mediacommonSupportedCodecs.Opus)

	if !mediacommonSupportedCodecs.EAC3 {
		t.Error("EAC3 should be supported via the mediacommon fork")
	}
}

func TestRegistryUpdatedWithDetection(t *testing.T) {
	eac3Info, ok := audioRegistry[AudioEAC3]
	if !ok {
		t.Fatal("AudioEAC3 not found in registry")
	}

	if !eac3Info.Demuxable {
		t.Error("AudioEAC3.Demuxable should be true after detection")
	}

	t.Logf("AudioEAC3 registry entry: Demuxable=%v, MPEGTSStreamType=0x%02X",
		eac3Info.Demuxable, eac3Info.MPEGTSStreamType)
}

func TestIsDemuxableUsesDetection(t *testing.T) {
	eac3 := AudioEAC3
	if !eac3.IsDemuxable() {
		t.Error("AudioEAC3.IsDemuxable() should return true")
	}

	if !IsAudioDemuxable("eac3") {
		t.Error(`IsAudioDemuxable("eac3") should return true`)
	}

	if !IsAudioDemuxable("ec-3") {
		t.Error(`IsAudioDemuxable("ec-3") should return true (alias)`)
	}
}

func TestMPEG124VideoNotDetected(t *testing.T) {
	// These video codecs are registered in codec.go as known metadata
	// but no demuxer in this module builds a track for them, so
	// mediacommon_detect.go does not probe or report support for them.
	if IsMediacommonCodecSupported("mpeg1") {
		t.Error(`IsMediacommonCodecSupported("mpeg1") should be false: not detected/demuxed`)
	}
	if IsMediacommonCodecSupported("mpeg4") {
		t.Error(`IsMediacommonCodecSupported("mpeg4") should be false: not detected/demuxed`)
	}
}
