package rtsp

import (
	"bufio"
	"strings"
	"testing"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusLine_S2(t *testing.T) {
	var res Response

	require.NoError(t, res.parseStatusLine("RTSP/1.0 200 OK"))
	assert.Equal(t, 200, res.StatusCode)

	require.NoError(t, res.parseStatusLine("RTSP/1.0 454 Session Not Found"))
	assert.Equal(t, 454, res.StatusCode)
	assert.Equal(t, "Session Not Found", res.StatusMessage)

	err := res.parseStatusLine("HTTP/1.1 200 OK")
	require.Error(t, err)
	var protoErr *errs.ProtocolError
	assert.ErrorAs(t, err, &protoErr)

	err = res.parseStatusLine("RTSP/1.0 OK 200")
	require.Error(t, err)
	assert.ErrorAs(t, err, &protoErr)
}

func TestResponseRead_FullMessage(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\n" +
		"CSeq: 1\r\n" +
		"Session: abcd1234;timeout=30\r\n" +
		"com.ses.streamID: 1\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"

	var res Response
	err := res.Read(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "abcd1234;timeout=30", res.Header["Session"])
	assert.Equal(t, "1", res.Header["com.ses.streamID"])
	assert.Equal(t, []byte("hello"), res.Body)
}

func TestResponseRead_NoBody(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n"
	var res Response
	err := res.Read(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Nil(t, res.Body)
}

func TestParseSessionHeader_S3(t *testing.T) {
	h, err := ParseSessionHeader("abcd1234;timeout=30")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", h.ID)
	assert.Equal(t, 30, h.Timeout)

	h, err = ParseSessionHeader("abcd1234;timeout=0")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", h.ID)
	assert.Equal(t, 60, h.Timeout)
}

func TestParseSessionHeader_NoTimeout(t *testing.T) {
	h, err := ParseSessionHeader("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, 60, h.Timeout)
}
