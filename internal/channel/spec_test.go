package channel

import (
	"testing"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidSpec(t *testing.T) {
	fe := 2
	s, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35,
		WithFrontend(fe), WithPids([]int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Src)
	assert.Equal(t, &fe, s.Frontend)
}

func TestToStreamURIParams_S4(t *testing.T) {
	fe := 2
	s, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35,
		WithFrontend(fe), WithPids([]int{0, 1}))
	require.NoError(t, err)

	got := s.ToStreamURIParams()
	want := "?src=1&freq=10714.25&sr=22000&msys=dvbs&mtype=qpsk&pol=h&fec=56&ro=0.35&pids=0,1&fe=2"
	assert.Equal(t, want, got)
}

func TestToStreamURIParams_NoFrontend(t *testing.T) {
	s, err := New(11000, 27500, "dvbs2", "8psk", "v", 34, 0.20)
	require.NoError(t, err)

	got := s.ToStreamURIParams()
	want := "?src=1&freq=11000&sr=27500&msys=dvbs2&mtype=8psk&pol=v&fec=34&ro=0.2&pids=0"
	assert.Equal(t, want, got)
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		freq   float64
		sr     int
		msys   string
		mtype  string
		pol    string
		fec    int
		ro     float64
	}{
		{"bad frequency", 0, 22000, "dvbs", "qpsk", "h", 56, 0.35},
		{"bad msys", 10714.25, 22000, "dvbc", "qpsk", "h", 56, 0.35},
		{"dvbs requires qpsk", 10714.25, 22000, "dvbs", "8psk", "h", 56, 0.35},
		{"bad polarisation", 10714.25, 22000, "dvbs", "qpsk", "x", 56, 0.35},
		{"bad fec", 10714.25, 22000, "dvbs", "qpsk", "h", 99, 0.35},
		{"bad rolloff", 10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.freq, tc.sr, tc.msys, tc.mtype, tc.pol, tc.fec, tc.ro)
			require.Error(t, err)
			var invalidArg *errs.InvalidArgument
			assert.ErrorAs(t, err, &invalidArg)
		})
	}
}

func TestValidate_RejectsBadPid(t *testing.T) {
	_, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35, WithPids([]int{8192}))
	require.Error(t, err)
}

func TestValidate_RejectsBadFrontend(t *testing.T) {
	_, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35, WithFrontend(0))
	require.Error(t, err)
}

func TestLabel(t *testing.T) {
	s, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35, WithDisplayName("ARD"))
	require.NoError(t, err)
	assert.Equal(t, "10714.25/h|ARD", s.Label())

	s2, err := New(10714.25, 22000, "dvbs", "qpsk", "h", 56, 0.35)
	require.NoError(t, err)
	assert.Equal(t, "10714.25/h", s2.Label())
}
