// Package errs defines the error taxonomy shared by every component of the
// satellite finder. Each failure mode is its own exported type so callers
// can recover the original classification with errors.As, the way the
// teacher library's pkg/liberrors does for its client/server errors.
package errs

import "fmt"

// InvalidArgument reports a malformed CLI argument or a ChannelSpec that
// fails validation at construction time.
type InvalidArgument struct {
	Field  string
	Reason string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// InvalidDescriptor reports a UPnP device descriptor missing a required
// field or carrying an unparseable X_SATIPCAP value.
type InvalidDescriptor struct {
	Reason string
}

func (e *InvalidDescriptor) Error() string {
	return fmt.Sprintf("invalid SAT>IP device descriptor: %s", e.Reason)
}

// ProtocolError reports a non-200 RTSP status, an unparseable response
// line, or a missing required header.
type ProtocolError struct {
	Method string
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("RTSP protocol error: %s", e.Reason)
	}
	return fmt.Sprintf("RTSP protocol error on %s: %s", e.Method, e.Reason)
}

// TransportError reports a socket, connect, timeout, or other I/O failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Malformed reports a structurally or semantically invalid RTCP/APP
// packet.
type Malformed struct {
	Reason string
}

func (e *Malformed) Error() string {
	return fmt.Sprintf("malformed RTCP packet: %s", e.Reason)
}

// ShuttingDown is returned by operations that raced with a Close() and
// were dropped as a result. Sinks treat it as silent: it is never logged
// as a failure.
type ShuttingDown struct{}

func (e *ShuttingDown) Error() string {
	return "operation raced with shutdown"
}
