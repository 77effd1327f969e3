// Package rtpstats is a purely diagnostic RTP sequence-continuity
// tracker. It never affects control flow: it exists only to give the
// raw RTP stream, which the SAT>IP client otherwise never inspects, a
// place to surface loss statistics alongside the RTCP-derived signal
// metrics.
package rtpstats

import (
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
)

// Tracker observes RTP packets for one tuner and maintains a running
// count of packets seen and gaps detected via sequence-number
// arithmetic, wraparound-aware.
type Tracker struct {
	mu          sync.Mutex
	initialized bool
	lastSeq     uint16
	cycles      uint32

	packets atomic.Uint64
	lost    atomic.Uint64
	bytes   atomic.Uint64
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Observe parses packet's RTP header and updates the running totals. A
// packet that fails to parse as RTP is counted as neither a packet nor
// a loss and is otherwise ignored, since this tracker is advisory only.
func (t *Tracker) Observe(packet []byte) {
	var header rtp.Header
	n, err := header.Unmarshal(packet)
	if err != nil {
		return
	}

	t.packets.Add(1)
	t.bytes.Add(uint64(len(packet) - n))

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		t.lastSeq = header.SequenceNumber
		t.initialized = true
		return
	}

	delta := header.SequenceNumber - t.lastSeq
	if delta != 0 && delta < 0x8000 {
		if delta > 1 {
			t.lost.Add(uint64(delta - 1))
		}
		if header.SequenceNumber < t.lastSeq {
			t.cycles++
		}
	}

	t.lastSeq = header.SequenceNumber
}

// Snapshot is a point-in-time view of the tracker's counters.
type Snapshot struct {
	Packets uint64
	Lost    uint64
	Bytes   uint64
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Packets: t.packets.Load(),
		Lost:    t.lost.Load(),
		Bytes:   t.bytes.Load(),
	}
}

// LossRate returns the loss percentage across packets observed so far.
func (s Snapshot) LossRate() float64 {
	total := s.Packets + s.Lost
	if total == 0 {
		return 0
	}
	return float64(s.Lost) * 100.0 / float64(total)
}
