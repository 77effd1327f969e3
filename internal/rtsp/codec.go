package rtsp

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/rs/zerolog"
)

const (
	requestTimeout = 4 * time.Second
	userAgent      = "satip-finder"
)

// Method is an RTSP request method.
type Method string

const (
	MethodOptions  Method = "OPTIONS"
	MethodSetup    Method = "SETUP"
	MethodPlay     Method = "PLAY"
	MethodTeardown Method = "TEARDOWN"
	MethodDescribe Method = "DESCRIBE"
)

// Codec serializes one request at a time on a reusable RTSP/1.0
// connection, returning a parsed Response. At most one request is ever
// in flight per Codec instance.
type Codec struct {
	log     zerolog.Logger
	baseURI string

	mu      sync.Mutex
	conn    net.Conn
	br      *bufio.Reader
	cseq    int
	session string
}

// Dial opens a TCP connection to host:port and returns a Codec ready to
// perform requests against it. Port 554 is omitted from the base URI,
// matching RTSP's well-known default.
func Dial(host string, port int, log zerolog.Logger) (*Codec, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, requestTimeout)
	if err != nil {
		return nil, &errs.TransportError{Op: "dial " + addr, Err: err}
	}

	portSuffix := ""
	if port != 554 {
		portSuffix = ":" + strconv.Itoa(port)
	}

	return &Codec{
		log:     log,
		baseURI: fmt.Sprintf("rtsp://%s%s/", host, portSuffix),
		conn:    conn,
		br:      bufio.NewReader(conn),
	}, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Codec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// BaseURI returns the connection's base RTSP URI, e.g. "rtsp://host/".
func (c *Codec) BaseURI() string {
	return c.baseURI
}

// ExtraHeaders carries request headers beyond the always-sent CSeq and
// User-Agent.
type ExtraHeaders map[string]string

// Perform sends one RTSP request and returns its parsed response.
// urlSuffix is appended to the codec's base URI to form the request URI.
func (c *Codec) Perform(method Method, urlSuffix string, extra ExtraHeaders) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, &errs.ShuttingDown{}
	}

	if err := c.conn.SetDeadline(time.Now().Add(requestTimeout)); err != nil {
		return nil, &errs.TransportError{Op: "set request deadline", Err: err}
	}

	c.cseq++
	uri := c.baseURI + urlSuffix

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", method, uri, rtspProtocol10)
	fmt.Fprintf(&b, "CSeq: %d\r\n", c.cseq)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", userAgent)
	if c.session != "" {
		fmt.Fprintf(&b, "Session: %s\r\n", c.session)
	}
	for k, v := range extra {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")

	if _, err := c.conn.Write([]byte(b.String())); err != nil {
		return nil, &errs.TransportError{Op: string(method) + " write", Err: err}
	}

	var res Response
	if err := res.Read(c.br); err != nil {
		return nil, err
	}

	c.log.Debug().Str("method", string(method)).Str("uri", uri).Int("status", res.StatusCode).Msg("rtsp request")

	return &res, nil
}

// PerformOptions sends an OPTIONS request against the base URI.
func (c *Codec) PerformOptions() (*Response, error) {
	return c.Perform(MethodOptions, "", nil)
}

// PerformSetup sends a SETUP request for the given channel query and
// client UDP ports.
func (c *Codec) PerformSetup(uriSuffix string, clientRTPPort, clientRTCPPort int) (*Response, error) {
	transport := fmt.Sprintf("RTP/AVP;unicast;client_port=%d-%d", clientRTPPort, clientRTCPPort)
	return c.Perform(MethodSetup, uriSuffix, ExtraHeaders{"Transport": transport})
}

// PerformPlay sends a PLAY request for streamID with the given pids.
func (c *Codec) PerformPlay(streamID int, pids []int) (*Response, error) {
	pidStrs := make([]string, len(pids))
	for i, p := range pids {
		pidStrs[i] = strconv.Itoa(p)
	}
	uriSuffix := fmt.Sprintf("stream=%d?addpids=%s", streamID, strings.Join(pidStrs, ","))
	return c.Perform(MethodPlay, uriSuffix, nil)
}

// PerformTeardown sends a TEARDOWN request for streamID.
func (c *Codec) PerformTeardown(streamID int) (*Response, error) {
	uriSuffix := fmt.Sprintf("stream=%d", streamID)
	return c.Perform(MethodTeardown, uriSuffix, nil)
}

// SetSession records the session id to echo back on subsequent requests.
func (c *Codec) SetSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sessionID
}
