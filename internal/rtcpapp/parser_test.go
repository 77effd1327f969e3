package rtcpapp

import (
	"encoding/base64"
	"testing"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const s1Fixture = "gMgABgCCerUAAAAAAAAAAIx7ggAAAABAAAE3YIHKAAYAgnq1ARFGRjpGRjpGRjpGRjpGRjpGRgCAzAAfAIJ6tVNFUzEAAABudmVyPTEuMDtzcmM9MTt0dW5lcj0xLDExNSwxLDEzLDEwNzE0LGgsZHZicyxxcHNrLG9mZiwwLjM1LDIyMDAwLDU2O3BpZHM9MCwxLDE2LDE3LDI2NiwyMzUzLDIzNTQsMjM1NSwyMzU2LDIzNTcAAA=="

func TestParseFirst_S1Fixture(t *testing.T) {
	buf, err := base64.StdEncoding.DecodeString(s1Fixture)
	require.NoError(t, err)

	pkt, err := ParseFirst(buf)
	require.NoError(t, err)
	require.NotNil(t, pkt)

	assert.Equal(t, "SES1", pkt.Name)
	assert.Equal(t, "1.0", pkt.Version)
	assert.Equal(t, 1, pkt.Source)
	assert.Equal(t, 1, pkt.FrontendID)
	assert.Equal(t, 115, pkt.SignalLevel)
	// The wire value for lock is "1"; per the corrected parsing rule this
	// decodes to true (the original implementation's always-false
	// comparison bug is not reproduced here).
	assert.True(t, pkt.Lock)
	assert.Equal(t, 13, pkt.Quality)
	assert.Equal(t, 10714.0, pkt.Frequency)
	assert.Equal(t, "h", pkt.Polarisation)
	assert.Equal(t, "dvbs", pkt.System)
	assert.Equal(t, "qpsk", pkt.Type)
	assert.False(t, pkt.Pilots)
	assert.Equal(t, 0.35, pkt.RollOff)
	assert.Equal(t, 22000, pkt.SymbolRate)
	assert.Equal(t, 56, pkt.FECInner)
	assert.Equal(t, []int{0, 1, 16, 17, 266, 2353, 2354, 2355, 2356, 2357}, pkt.Pids)

	assert.Equal(t, 45, pkt.LevelPct())
	assert.Equal(t, 86, pkt.QualityPct())
}

func TestParseFirst_NoAppPacket(t *testing.T) {
	buf, err := base64.StdEncoding.DecodeString(s1Fixture)
	require.NoError(t, err)
	// Strip the trailing APP packet, leaving only the SR/SDES pair.
	pkt, err := ParseFirst(buf[:56])
	require.NoError(t, err)
	assert.Nil(t, pkt)
}

func TestParseAppPayload_BadIdentifier(t *testing.T) {
	data := make([]byte, 8)
	data[1] = 1 // identifier = 1, must be 0
	_, err := parseAppPayload([4]byte{'S', 'E', 'S', '1'}, data)
	require.Error(t, err)
	var malformed *errs.Malformed
	assert.ErrorAs(t, err, &malformed)
}

func TestParseAppPayload_LengthMismatch(t *testing.T) {
	// identifier=0, declared length 10, but only 3 bytes of (non-null)
	// string data follow.
	data := []byte{0x00, 0x00, 0x00, 0x0a, 'v', 'e', 'r', 0x00}
	_, err := parseAppPayload([4]byte{'S', 'E', 'S', '1'}, data)
	require.Error(t, err)
}

func TestParseTuner_WrongFieldCount(t *testing.T) {
	p := &Packet{}
	err := parseTuner(p, "1,115,1,13")
	require.Error(t, err)
}

func TestParseTuner_RangeViolation(t *testing.T) {
	p := &Packet{}
	err := parseTuner(p, "1,999,1,13,10714,h,dvbs,qpsk,off,0.35,22000,56")
	require.Error(t, err)
}

func TestParseLock(t *testing.T) {
	v, err := parseLock("1")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = parseLock("0")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = parseLock("x")
	require.Error(t, err)
}

func TestParsePilots(t *testing.T) {
	v, err := parsePilots("ON")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = parsePilots("off")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = parsePilots("maybe")
	require.Error(t, err)
}
