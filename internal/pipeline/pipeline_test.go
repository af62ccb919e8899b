package pipeline

import (
	"testing"

	"github.com/flowreel/transmux/internal/transmux"
)

func TestNewProbeTableOrdersFamiliesFMP4First(t *testing.T) {
	table := NewProbeTable(nil)
	// fMP4 entries must win the probe race against TS/ADTS/MP3 inputs
	// that happen to share a leading byte pattern, so the ftyp probe
	// has to be checked first.
	entry, fellBack := table.SelectOrFallback(append([]byte("\x00\x00\x00\x18ftyp"), make([]byte, 1024)...), nil)
	if fellBack {
		t.Fatal("expected a direct match, not a fallback")
	}
	if entry.FamilyName != FamilyFMP4 {
		t.Fatalf("expected family %q, got %q", FamilyFMP4, entry.FamilyName)
	}
}

func TestNewProbeTableFallsBackToPassthroughForUnidentifiableInput(t *testing.T) {
	table := NewProbeTable(nil)
	entry, fellBack := table.SelectOrFallback(make([]byte, 2000), nil)
	if !fellBack {
		t.Fatal("expected the fallback to be used for unidentifiable input")
	}
	if entry.FamilyName != FamilyPassthrough {
		t.Fatalf("expected family %q, got %q", FamilyPassthrough, entry.FamilyName)
	}
}

func TestWallClockNowMSIsMonotonicNonDecreasing(t *testing.T) {
	c := NewClock()
	first := c.NowMS()
	second := c.NowMS()
	if second < first {
		t.Fatalf("expected NowMS to be non-decreasing, got %d then %d", first, second)
	}
}

func TestLogEventEmitterHandlesEveryPayloadShape(t *testing.T) {
	e := NewLogEventEmitter(nil)
	// None of these should panic; Emit has no return value to assert on.
	e.Emit(transmux.Event{Name: transmux.EventMediaError, Payload: transmux.MediaErrorPayload{
		Type: "x", Details: "y", Fatal: true, Reason: "z",
	}})
	e.Emit(transmux.Event{Name: transmux.EventProbeFallback, Payload: transmux.ProbeFallbackPayload{ByteLength: 10}})
	e.Emit(transmux.Event{Name: "unknown", Payload: nil})
}
