package demux

import (
	"bytes"
	"testing"
)

func nalu(nalType byte, payload string) []byte {
	return append([]byte{nalType}, []byte(payload)...)
}

func TestReorderNALUnitsMovesSEIAfterParamSets(t *testing.T) {
	sei := nalu(0x06, "sei")       // h264 SEI, type 6
	sps := nalu(0x07, "sps")       // h264 SPS, type 7
	pps := nalu(0x08, "pps")       // h264 PPS, type 8
	slice := nalu(0x01, "slice")   // ordinary slice, type 1

	au := [][]byte{sei, sps, pps, slice}
	out := ReorderNALUnits(au)

	if len(out) != 4 {
		t.Fatalf("expected 4 NAL units, got %d", len(out))
	}
	// Parameter sets must precede SEI, SEI must precede the slice.
	idx := func(n []byte) int {
		for i, o := range out {
			if bytes.Equal(o, n) {
				return i
			}
		}
		return -1
	}
	if idx(sps) > idx(sei) || idx(pps) > idx(sei) {
		t.Fatalf("expected parameter sets before SEI, got order %v", out)
	}
	if idx(sei) > idx(slice) {
		t.Fatalf("expected SEI before slice data, got order %v", out)
	}
}

func TestReorderNALUnitsSingleUnitIsNoop(t *testing.T) {
	au := [][]byte{nalu(0x01, "only")}
	out := ReorderNALUnits(au)
	if len(out) != 1 || !bytes.Equal(out[0], au[0]) {
		t.Fatalf("expected unchanged single-unit input, got %v", out)
	}
}

func TestReorderNALUnitsSkipsEmptyUnits(t *testing.T) {
	au := [][]byte{{}, nalu(0x01, "a"), nalu(0x01, "b")}
	out := ReorderNALUnits(au)
	if len(out) != 2 {
		t.Fatalf("expected empty unit dropped, got %d units", len(out))
	}
}

func TestBuildAnnexB(t *testing.T) {
	nalus := [][]byte{{0x07, 0xAA}, {0x08, 0xBB}}
	out := BuildAnnexB(nalus)
	want := []byte{0, 0, 0, 1, 0x07, 0xAA, 0, 0, 0, 1, 0x08, 0xBB}
	if !bytes.Equal(out, want) {
		t.Fatalf("BuildAnnexB mismatch:\ngot  %x\nwant %x", out, want)
	}
}
