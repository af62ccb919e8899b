package remux

import (
	"testing"

	"github.com/flowreel/transmux/internal/transmux"
)

func TestPassthroughRemuxerDelegatesToInnerFMP4Remuxer(t *testing.T) {
	r := NewPassthroughRemuxer(nil, "vendor-x")
	out, err := r.Remux(&transmux.DemuxResult{}, 0, false, false, "seg")
	if err != nil {
		t.Fatalf("Remux returned error: %v", err)
	}
	if out.InitSegment != nil || out.Payload != nil {
		t.Fatalf("expected an empty result for an empty demux result, got %+v", out)
	}
}

func TestPassthroughRemuxerResetInitSegmentForwarded(t *testing.T) {
	r := NewPassthroughRemuxer(nil, "")
	r.ResetInitSegment([]byte("init-bytes"), "aac", "avc1")
	if string(r.inner.initSegmentOverride) != "init-bytes" {
		t.Fatalf("expected ResetInitSegment to forward to the inner remuxer, got %q", r.inner.initSegmentOverride)
	}
}

func TestPassthroughRemuxerDestroyIsSafe(t *testing.T) {
	r := NewPassthroughRemuxer(nil, "")
	r.Destroy()
}
