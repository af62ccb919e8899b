package demux

import "testing"

func tsPacket(sync byte) []byte {
	p := make([]byte, 188)
	p[0] = sync
	return p
}

func TestProbeTSShortInputUsesSyncScan(t *testing.T) {
	data := append(tsPacket(0x47), tsPacket(0x47)...)
	if !ProbeTS(data) {
		t.Fatal("expected ProbeTS to accept repeated sync bytes under the full-scan threshold")
	}
}

func TestProbeTSRejectsNonTSPrefix(t *testing.T) {
	data := append(tsPacket(0x00), tsPacket(0x00)...)
	if ProbeTS(data) {
		t.Fatal("expected ProbeTS to reject data without any TS sync byte")
	}
}

func TestQuickSyncScanRequiresFirstPacketSynced(t *testing.T) {
	data := append(tsPacket(0x00), tsPacket(0x47)...)
	if quickSyncScan(data) {
		t.Fatal("expected quickSyncScan to stop at the first non-synced packet")
	}
}

func TestQuickSyncScanAcceptsThreeSyncedPackets(t *testing.T) {
	data := append(append(tsPacket(0x47), tsPacket(0x47)...), tsPacket(0x47)...)
	if !quickSyncScan(data) {
		t.Fatal("expected quickSyncScan to accept three consecutive sync bytes")
	}
}
