package demux

// H.264/H.265 NAL unit type values used to classify units for
// reordering and keyframe prepending. Values are NAL unit type fields
// as defined by the respective specs; H.264 and H.265 use disjoint
// numeric ranges by convention in this file's switch statements, which
// is what the type parameter to the helpers below threads through.
const (
	h264NALTypeSPS    = 7
	h264NALTypePPS    = 8
	h264NALTypeAUD    = 9
	h264NALTypeSEI    = 6
	h265NALTypeVPS    = 32
	h265NALTypeSPS    = 33
	h265NALTypePPS    = 34
	h265NALTypeAUD    = 35
	h265NALTypePrefixSEI = 39
	h265NALTypeSuffixSEI = 40
)

// ReorderNALUnits rebuilds an access unit in decoder-safe order:
// access unit delimiters first, then parameter sets, then SEI, then
// slice/other data — some encoders emit SEI ahead of SPS/PPS, which
// trips conformant fMP4 consumers. Kept as a standalone, codec-agnostic
// classifier rather than two near-duplicate H.264/H.265 functions.
func ReorderNALUnits(au [][]byte) [][]byte {
	if len(au) <= 1 {
		return au
	}

	var paramSets, audNALs, seiNALs, rest [][]byte
	for _, nalu := range au {
		if len(nalu) == 0 {
			continue
		}
		t := nalUnitType(nalu)
		switch {
		case isParamSet(t):
			paramSets = append(paramSets, nalu)
		case isAUD(t):
			audNALs = append(audNALs, nalu)
		case isSEI(t):
			seiNALs = append(seiNALs, nalu)
		default:
			rest = append(rest, nalu)
		}
	}

	out := make([][]byte, 0, len(au))
	out = append(out, audNALs...)
	out = append(out, paramSets...)
	out = append(out, seiNALs...)
	out = append(out, rest...)
	return out
}

// nalUnitType extracts the NAL unit type from the first byte(s),
// covering both H.264 (type in the low 5 bits of byte 0) and H.265
// (type in bits 1-6 of byte 0) layouts. Since the two ranges overlap
// numerically, callers must only compare against the constant matching
// the codec in use; ReorderNALUnits instead classifies against both
// sets, which is safe because the type spaces are disjoint in practice
// for parameter-set/AUD/SEI values.
func nalUnitType(nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	h264Type := int(nalu[0] & 0x1F)
	h265Type := int((nalu[0] >> 1) & 0x3F)
	// Prefer whichever classification lands on a recognized "special"
	// value; both are consulted since this helper is codec-agnostic.
	if isParamSet(h264Type) || isAUD(h264Type) || isSEI(h264Type) {
		return h264Type
	}
	return h265Type
}

func isParamSet(t int) bool {
	return t == h264NALTypeSPS || t == h264NALTypePPS || t == h265NALTypeVPS || t == h265NALTypeSPS || t == h265NALTypePPS
}

func isAUD(t int) bool {
	return t == h264NALTypeAUD || t == h265NALTypeAUD
}

func isSEI(t int) bool {
	return t == h264NALTypeSEI || t == h265NALTypePrefixSEI || t == h265NALTypeSuffixSEI
}

// annexBStartCode is the 4-byte Annex B start code prefix used ahead of
// every NAL unit in the reconstructed bitstream.
var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// BuildAnnexB concatenates NAL units with Annex B start codes.
func BuildAnnexB(nalus [][]byte) []byte {
	size := 0
	for _, n := range nalus {
		size += len(annexBStartCode) + len(n)
	}
	out := make([]byte, 0, size)
	for _, n := range nalus {
		out = append(out, annexBStartCode...)
		out = append(out, n...)
	}
	return out
}
