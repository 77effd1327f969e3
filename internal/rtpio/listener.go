// Package rtpio implements the UDP receive side of a SAT>IP tuner: two
// bound sockets (RTP, RTCP), each with a dedicated receive loop that can
// be shut down cleanly without a self-pipe, by repurposing the read
// deadline as a wakeup signal.
package rtpio

import (
	"net"
	"time"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/rs/zerolog"
)

const maxDatagramSize = 4096

// SinkFunc receives one UDP datagram's payload. It must not retain the
// slice beyond the call.
type SinkFunc func(packet []byte)

// listener owns one bound UDP socket and its receive loop.
type listener struct {
	log  zerolog.Logger
	name string
	pc   *net.UDPConn
	done chan struct{}
	sink SinkFunc

	started bool
}

func newListener(log zerolog.Logger, name string, port int, sink SinkFunc) (*listener, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	pc, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, &errs.TransportError{Op: "bind " + name + " socket", Err: err}
	}

	return &listener{
		log:  log,
		name: name,
		pc:   pc,
		done: make(chan struct{}),
		sink: sink,
	}, nil
}

// start launches the receive loop. The read deadline is cleared so
// ReadFrom blocks indefinitely until either a datagram arrives or stop
// sets a deadline in the past to unblock it.
func (l *listener) start() {
	l.pc.SetReadDeadline(time.Time{})
	l.started = true
	go l.run()
}

// stop sets an already-past read deadline, which unblocks a pending
// ReadFrom the same way a self-pipe would wake a select() loop, then
// waits for the receive goroutine to observe the resulting error and
// exit. A listener whose loop was never started has nothing to wait for.
func (l *listener) stop() {
	if !l.started {
		return
	}
	l.pc.SetReadDeadline(time.Now())
	<-l.done
}

func (l *listener) close() {
	l.stop()
	l.pc.Close()
}

func (l *listener) run() {
	defer close(l.done)

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := l.pc.ReadFrom(buf)
		if err != nil {
			return
		}

		l.invokeSink(buf[:n])
	}
}

// invokeSink calls the registered sink, recovering from panics so a
// misbehaving sink never kills the receive loop.
func (l *listener) invokeSink(packet []byte) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("socket", l.name).Interface("panic", r).Msg("rtp/rtcp sink panicked")
		}
	}()

	l.sink(packet)
}
