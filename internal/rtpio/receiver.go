package rtpio

import (
	"net"

	"github.com/rs/zerolog"
)

// Receiver owns the RTP and RTCP UDP sockets for one tuner and the two
// receive loops that read from them. Sockets are bound at construction
// time so no datagram sent immediately after PLAY is dropped; receive
// loops only start once Start is called.
type Receiver struct {
	log  zerolog.Logger
	rtp  *listener
	rtcp *listener
}

// New binds the RTP and RTCP sockets on the given ports. onRTP may be
// nil; onRTCP drives the signal-quality pipeline and is always set by
// callers.
func New(log zerolog.Logger, rtpPort, rtcpPort int, onRTP, onRTCP SinkFunc) (*Receiver, error) {
	if onRTP == nil {
		onRTP = func([]byte) {}
	}
	if onRTCP == nil {
		onRTCP = func([]byte) {}
	}

	rtp, err := newListener(log, "rtp", rtpPort, onRTP)
	if err != nil {
		return nil, err
	}

	rtcp, err := newListener(log, "rtcp", rtcpPort, onRTCP)
	if err != nil {
		rtp.close()
		return nil, err
	}

	return &Receiver{log: log, rtp: rtp, rtcp: rtcp}, nil
}

// Start launches both receive loops.
func (r *Receiver) Start() {
	r.rtp.start()
	r.rtcp.start()
}

// Close stops and joins both receive loops, then closes both sockets.
// After Close returns, neither sink can be invoked again. Safe to call
// more than once is not guaranteed by the underlying net.UDPConn, so
// callers (RtspSession) must call Close exactly once.
func (r *Receiver) Close() {
	r.rtp.stop()
	r.rtcp.stop()
	r.rtp.pc.Close()
	r.rtcp.pc.Close()
}

// RTPPort returns the bound local RTP port.
func (r *Receiver) RTPPort() int {
	return r.rtp.pc.LocalAddr().(*net.UDPAddr).Port
}

// RTCPPort returns the bound local RTCP port.
func (r *Receiver) RTCPPort() int {
	return r.rtcp.pc.LocalAddr().(*net.UDPAddr).Port
}
