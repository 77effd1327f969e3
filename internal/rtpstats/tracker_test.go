package rtpstats

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func packetWithSeq(t *testing.T, seq uint16) []byte {
	t.Helper()
	p := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    33,
			SequenceNumber: seq,
			Timestamp:      0,
			SSRC:           1,
		},
		Payload: []byte{0xAA, 0xBB},
	}
	buf, err := p.Marshal()
	require.NoError(t, err)
	return buf
}

func TestTracker_NoLoss(t *testing.T) {
	tr := New()
	tr.Observe(packetWithSeq(t, 1))
	tr.Observe(packetWithSeq(t, 2))
	tr.Observe(packetWithSeq(t, 3))

	snap := tr.Snapshot()
	require.EqualValues(t, 3, snap.Packets)
	require.EqualValues(t, 0, snap.Lost)
}

func TestTracker_DetectsGap(t *testing.T) {
	tr := New()
	tr.Observe(packetWithSeq(t, 1))
	tr.Observe(packetWithSeq(t, 5))

	snap := tr.Snapshot()
	require.EqualValues(t, 2, snap.Packets)
	require.EqualValues(t, 3, snap.Lost)
}

func TestTracker_HandlesWraparound(t *testing.T) {
	tr := New()
	tr.Observe(packetWithSeq(t, 65534))
	tr.Observe(packetWithSeq(t, 65535))
	tr.Observe(packetWithSeq(t, 0))
	tr.Observe(packetWithSeq(t, 1))

	snap := tr.Snapshot()
	require.EqualValues(t, 4, snap.Packets)
	require.EqualValues(t, 0, snap.Lost)
}

func TestTracker_IgnoresGarbage(t *testing.T) {
	tr := New()
	tr.Observe([]byte{0x00, 0x01})

	snap := tr.Snapshot()
	require.EqualValues(t, 0, snap.Packets)
}
