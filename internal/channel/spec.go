// Package channel implements ChannelSpec: validated DVB-S/S2 tuning
// parameters and their serialization into a SAT>IP stream URI query.
package channel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/misternerd/satip-finder/internal/errs"
)

var validFEC = map[int]bool{
	12: true, 23: true, 34: true, 56: true, 78: true,
	89: true, 35: true, 45: true, 910: true,
}

var validRolloff = map[float64]bool{
	0.20: true, 0.25: true, 0.35: true,
}

// Spec is an immutable, validated description of one transponder to tune.
type Spec struct {
	Frontend         *int // optional, 1..65535
	Src              int  // 1..255, default 1
	Frequency        float64
	SymbolRate       int
	ModulationSystem string // "dvbs" | "dvbs2"
	ModulationType   string // "qpsk" | "8psk"
	Polarisation     string // "h" | "v"
	FEC              int
	Rolloff          float64
	Pids             []int
	DisplayName      string
}

// Option mutates a Spec before validation, following the functional-options
// shape the teacher uses for its client configuration knobs.
type Option func(*Spec)

// WithFrontend sets the physical frontend to bind.
func WithFrontend(frontend int) Option {
	return func(s *Spec) { s.Frontend = &frontend }
}

// WithDisplayName sets the optional human label.
func WithDisplayName(name string) Option {
	return func(s *Spec) { s.DisplayName = name }
}

// WithPids overrides the default PID list.
func WithPids(pids []int) Option {
	return func(s *Spec) { s.Pids = pids }
}

// New constructs and validates a Spec. Src defaults to 1 and Pids defaults
// to []int{0} when not overridden by an Option.
func New(
	frequency float64,
	symbolRate int,
	modulationSystem string,
	modulationType string,
	polarisation string,
	fec int,
	rolloff float64,
	opts ...Option,
) (*Spec, error) {
	s := &Spec{
		Src:              1,
		Frequency:        frequency,
		SymbolRate:       symbolRate,
		ModulationSystem: modulationSystem,
		ModulationType:   modulationType,
		Polarisation:     polarisation,
		FEC:              fec,
		Rolloff:          rolloff,
		Pids:             []int{0},
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Spec) validate() error {
	if s.Frontend != nil && (*s.Frontend < 1 || *s.Frontend > 65535) {
		return &errs.InvalidArgument{Field: "frontend", Reason: "must be in [1, 65535]"}
	}
	if s.Src < 1 || s.Src > 255 {
		return &errs.InvalidArgument{Field: "src", Reason: "must be in [1, 255]"}
	}
	if s.Frequency <= 0 {
		return &errs.InvalidArgument{Field: "frequency", Reason: "must be positive"}
	}
	if s.ModulationSystem != "dvbs" && s.ModulationSystem != "dvbs2" {
		return &errs.InvalidArgument{Field: "modulation_system", Reason: "must be dvbs or dvbs2"}
	}
	if s.ModulationType != "qpsk" && s.ModulationType != "8psk" {
		return &errs.InvalidArgument{Field: "modulation_type", Reason: "must be qpsk or 8psk"}
	}
	if s.ModulationSystem == "dvbs" && s.ModulationType != "qpsk" {
		return &errs.InvalidArgument{Field: "modulation_type", Reason: "dvbs requires qpsk"}
	}
	if s.Polarisation != "h" && s.Polarisation != "v" {
		return &errs.InvalidArgument{Field: "polarisation", Reason: "must be h or v"}
	}
	if !validFEC[s.FEC] {
		return &errs.InvalidArgument{Field: "fec", Reason: "must be one of 12,23,34,56,78,89,35,45,910"}
	}
	if !validRolloff[s.Rolloff] {
		return &errs.InvalidArgument{Field: "rolloff", Reason: "must be one of 0.20, 0.25, 0.35"}
	}
	for _, pid := range s.Pids {
		if pid < 0 || pid > 8191 {
			return &errs.InvalidArgument{Field: "pids", Reason: fmt.Sprintf("pid %d out of range [0, 8191]", pid)}
		}
	}

	return nil
}

// ToStreamURIParams serializes the Spec in the fixed field order the
// SAT>IP server requires for interop: src, freq, sr, msys, mtype, pol,
// fec, ro, pids, and only then fe if a frontend was requested.
func (s *Spec) ToStreamURIParams() string {
	pidStrs := make([]string, len(s.Pids))
	for i, pid := range s.Pids {
		pidStrs[i] = strconv.Itoa(pid)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "?src=%d", s.Src)
	fmt.Fprintf(&b, "&freq=%s", formatDecimal(s.Frequency))
	fmt.Fprintf(&b, "&sr=%d", s.SymbolRate)
	fmt.Fprintf(&b, "&msys=%s", s.ModulationSystem)
	fmt.Fprintf(&b, "&mtype=%s", s.ModulationType)
	fmt.Fprintf(&b, "&pol=%s", s.Polarisation)
	fmt.Fprintf(&b, "&fec=%d", s.FEC)
	fmt.Fprintf(&b, "&ro=%s", formatDecimal(s.Rolloff))
	fmt.Fprintf(&b, "&pids=%s", strings.Join(pidStrs, ","))

	if s.Frontend != nil {
		fmt.Fprintf(&b, "&fe=%d", *s.Frontend)
	}

	return b.String()
}

// formatDecimal renders a float in its natural decimal form, e.g. 10714.25
// stays "10714.25" and 0.35 stays "0.35", matching the server-interop
// format required by spec.md §4.2.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Label returns the display label used by the terminal dashboard and by
// --tune argument echoing: "<frequency>/<polarisation>" optionally
// suffixed with "|<display name>".
func (s *Spec) Label() string {
	label := fmt.Sprintf("%s/%s", formatDecimal(s.Frequency), s.Polarisation)
	if s.DisplayName != "" {
		label += "|" + s.DisplayName
	}
	return label
}
