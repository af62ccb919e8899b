package demux

import "testing"

// mp3Frame builds a minimal MPEG-1 Layer III frame at the given bitrate/
// sample-rate table indices, padded to its computed frame length.
func mp3Frame(bitrateIdx, sampleRateIdx byte) []byte {
	frameLength := 144*mp3BitrateKbps[bitrateIdx]*1000/mp3SampleRates[sampleRateIdx] + 0

	b := make([]byte, frameLength)
	b[0] = 0xFF
	b[1] = 0xFB // 11111011: sync + MPEG-1 + Layer III
	b[2] = bitrateIdx<<4 | sampleRateIdx<<2
	b[3] = 0xC0
	for i := 4; i < len(b); i++ {
		b[i] = byte(i)
	}
	return b
}

func TestProbeMP3MatchesSyncWord(t *testing.T) {
	frame := mp3Frame(5, 0)
	if !ProbeMP3(frame) {
		t.Fatal("expected ProbeMP3 to match a well-formed MP3 frame")
	}
}

func TestProbeMP3RejectsShortInput(t *testing.T) {
	if ProbeMP3([]byte{0xFF, 0xFB}) {
		t.Fatal("expected ProbeMP3 to reject input shorter than MinProbeBytesMP3")
	}
}

func TestProbeMP3RejectsWrongLayer(t *testing.T) {
	frame := mp3Frame(5, 0)
	frame[1] = 0xFD // layer bits no longer select Layer III
	if ProbeMP3(frame) {
		t.Fatal("expected ProbeMP3 to reject a non-Layer-III sync pattern")
	}
}

func TestMP3DemuxerExtractsSingleFrame(t *testing.T) {
	d := NewMP3Demuxer(nil)
	frame := mp3Frame(5, 0)

	result, err := d.Demux(frame, 0, true, false)
	if err != nil {
		t.Fatalf("Demux returned error: %v", err)
	}
	if result.AudioTrack == nil || len(result.AudioTrack.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %+v", result)
	}
	if len(result.AudioTrack.Samples[0].Data) != len(frame) {
		t.Fatalf("expected sample to carry the whole frame, got %d bytes", len(result.AudioTrack.Samples[0].Data))
	}
}

func TestMP3DemuxerBuffersPartialFrame(t *testing.T) {
	d := NewMP3Demuxer(nil)
	frame := mp3Frame(5, 0)
	split := len(frame) / 2

	result, err := d.Demux(frame[:split], 0, true, false)
	if err != nil {
		t.Fatalf("Demux returned error: %v", err)
	}
	if result.AudioTrack != nil {
		t.Fatal("expected no track from a partial frame")
	}

	result, err = d.Demux(frame[split:], 0, true, false)
	if err != nil {
		t.Fatalf("Demux returned error: %v", err)
	}
	if result.AudioTrack == nil || len(result.AudioTrack.Samples) != 1 {
		t.Fatalf("expected the completed frame to yield 1 sample, got %+v", result)
	}
}

func TestMP3DemuxerFlushNoResidueIsEmpty(t *testing.T) {
	d := NewMP3Demuxer(nil)
	result, err := d.Flush(0)
	if err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if result.AudioTrack != nil {
		t.Fatal("expected an empty result when no residue is buffered")
	}
}

func TestMP3DemuxSampleAESUnsupported(t *testing.T) {
	d := NewMP3Demuxer(nil)
	f := d.DemuxSampleAES(nil, nil, 0)
	_, err := f.Wait()
	if err == nil {
		t.Fatal("expected an error from DemuxSampleAES on a naked MP3 stream")
	}
}
