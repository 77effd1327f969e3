package rtsp

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/misternerd/satip-finder/internal/channel"
	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/misternerd/satip-finder/internal/rtpio"
	"github.com/rs/zerolog"
)

// State is one of the RtspSession finite-state-machine states.
type State int

const (
	StateInit State = iota
	StateReady
	StatePlaying
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateReady:
		return "READY"
	case StatePlaying:
		return "PLAYING"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Session is one tuner's RTSP lifecycle: SETUP -> PLAY -> TEARDOWN,
// issued over its own Codec. Play hands the started Receiver to the
// caller; closing the Receiver and the Codec is left to the caller.
type Session struct {
	log   zerolog.Logger
	codec *Codec
	spec  *channel.Spec

	state State

	sessionID      string
	streamID       int
	timeoutS       int
	clientRTPPort  int
	clientRTCPPort int
}

// NewSession wraps a freshly dialed Codec for one channel.
func NewSession(log zerolog.Logger, codec *Codec, spec *channel.Spec) *Session {
	correlationID := uuid.NewString()
	return &Session{
		log:   log.With().Str("session_id", correlationID).Str("channel", spec.Label()).Logger(),
		codec: codec,
		spec:  spec,
		state: StateInit,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Setup sends a SETUP request for the session's channel and the given
// client UDP ports, extracting the session id, stream id, and keep-alive
// timeout from a 200 response.
func (s *Session) Setup(clientRTPPort, clientRTCPPort int) error {
	s.clientRTPPort = clientRTPPort
	s.clientRTCPPort = clientRTCPPort

	res, err := s.codec.PerformSetup(s.spec.ToStreamURIParams(), clientRTPPort, clientRTCPPort)
	if err != nil {
		s.state = StateFailed
		return err
	}

	if res.StatusCode != 200 {
		s.state = StateFailed
		return &errs.ProtocolError{Method: "SETUP", Reason: fmt.Sprintf("status %d %s", res.StatusCode, res.StatusMessage)}
	}

	sessionHeader, ok := res.Header["Session"]
	if !ok {
		s.state = StateFailed
		return &errs.ProtocolError{Method: "SETUP", Reason: "missing Session header"}
	}
	parsedSession, err := ParseSessionHeader(sessionHeader)
	if err != nil {
		s.state = StateFailed
		return err
	}

	streamIDHeader, ok := res.Header["com.ses.streamID"]
	if !ok {
		s.state = StateFailed
		return &errs.ProtocolError{Method: "SETUP", Reason: "missing com.ses.streamID header"}
	}
	var streamID int
	if _, err := fmt.Sscanf(streamIDHeader, "%d", &streamID); err != nil {
		s.state = StateFailed
		return &errs.ProtocolError{Method: "SETUP", Reason: "unparseable com.ses.streamID: " + streamIDHeader}
	}

	s.sessionID = parsedSession.ID
	s.streamID = streamID
	s.timeoutS = parsedSession.Timeout
	s.codec.SetSession(s.sessionID)
	s.state = StateReady

	return nil
}

// SessionID, StreamID and TimeoutSeconds expose the values extracted by
// Setup, valid once State() is StateReady or StatePlaying.
func (s *Session) SessionID() string   { return s.sessionID }
func (s *Session) StreamID() int       { return s.streamID }
func (s *Session) TimeoutSeconds() int { return s.timeoutS }

// Play binds the RTP/RTCP receiver sockets before sending PLAY, so the
// server's first datagrams are never dropped, but only returns (and
// starts) the receiver if PLAY actually succeeds; on failure the
// receiver is closed and nil is returned alongside the error.
func (s *Session) Play(pids []int, onRTP, onRTCP rtpio.SinkFunc) (*rtpio.Receiver, error) {
	receiver, err := rtpio.New(s.log, s.clientRTPPort, s.clientRTCPPort, onRTP, onRTCP)
	if err != nil {
		s.state = StateFailed
		return nil, err
	}

	res, err := s.codec.PerformPlay(s.streamID, pids)
	if err != nil {
		receiver.Close()
		s.state = StateFailed
		return nil, err
	}

	if res.StatusCode != 200 {
		receiver.Close()
		s.state = StateFailed
		return nil, &errs.ProtocolError{Method: "PLAY", Reason: fmt.Sprintf("status %d %s", res.StatusCode, res.StatusMessage)}
	}

	receiver.Start()
	s.state = StatePlaying
	return receiver, nil
}

// Teardown sends a TEARDOWN request. It is idempotent and safe to call
// on a FAILED session: teardown on a session that never reached READY
// is a no-op that reports success.
func (s *Session) Teardown() bool {
	if s.state == StateClosed {
		return true
	}
	if s.state == StateInit || s.sessionID == "" {
		s.state = StateClosed
		return true
	}

	res, err := s.codec.PerformTeardown(s.streamID)
	s.state = StateClosed

	if err != nil {
		s.log.Warn().Err(err).Msg("teardown request failed")
		return false
	}
	if res.StatusCode != 200 {
		s.log.Warn().Int("status", res.StatusCode).Msg("teardown returned non-200")
		return false
	}

	return true
}
