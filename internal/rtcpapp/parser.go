// Package rtcpapp decodes the SAT>IP "SES1" RTCP APP packet that carries
// per-tuner signal telemetry. The generic RTCP compound-packet walk is
// delegated to github.com/pion/rtcp; the SAT>IP-specific inner grammar is
// parsed by hand from the resulting ApplicationDefined payload.
package rtcpapp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/pion/rtcp"
)

// Packet is a decoded SAT>IP telemetry report.
type Packet struct {
	Name         string
	Version      string
	Source       int
	FrontendID   int
	SignalLevel  int
	Lock         bool
	Quality      int
	Frequency    float64
	Polarisation string
	System       string
	Type         string
	Pilots       bool
	RollOff      float64
	SymbolRate   int
	FECInner     int
	Pids         []int
}

// LevelPct maps SignalLevel (0..255) onto a 0..100 scale.
func (p *Packet) LevelPct() int {
	return p.SignalLevel * 100 / 255
}

// QualityPct maps Quality (0..15) onto a 0..100 scale.
func (p *Packet) QualityPct() int {
	return p.Quality * 100 / 15
}

// ParseFirst walks a compound RTCP datagram and returns the first SAT>IP
// APP packet it finds, or nil if the datagram contains none. It returns
// an *errs.Malformed if the datagram or the APP payload violates the
// wire grammar.
func ParseFirst(buf []byte) (*Packet, error) {
	packets, err := rtcp.Unmarshal(buf)
	if err != nil {
		return nil, &errs.Malformed{Reason: fmt.Sprintf("rtcp compound packet: %v", err)}
	}

	for _, pkt := range packets {
		app, ok := pkt.(*rtcp.ApplicationDefined)
		if !ok {
			continue
		}
		return parseAppPayload(app.Name, app.Data)
	}

	return nil, nil
}

// parseAppPayload decodes the identifier/length/string framing that
// wraps the SAT>IP application-data string inside an RTCP APP packet's
// payload. name is the 4-byte APP name field; data is everything after
// it (pion/rtcp's ApplicationDefined.Data).
func parseAppPayload(name [4]byte, data []byte) (*Packet, error) {
	if len(data) < 4 {
		return nil, &errs.Malformed{Reason: "APP payload shorter than identifier+length header"}
	}

	identifier := binary.BigEndian.Uint16(data[0:2])
	if identifier != 0 {
		return nil, &errs.Malformed{Reason: fmt.Sprintf("APP identifier must be 0, got %d", identifier)}
	}

	declaredLen := int(binary.BigEndian.Uint16(data[2:4]))
	rest := data[4:]
	trimmed := bytes.TrimRight(rest, "\x00")
	if len(trimmed) != declaredLen {
		return nil, &errs.Malformed{Reason: fmt.Sprintf("APP string length mismatch: declared %d, got %d after trimming padding", declaredLen, len(trimmed))}
	}

	p, err := parseAppData(string(trimmed))
	if err != nil {
		return nil, err
	}
	p.Name = string(name[:])
	return p, nil
}

// parseAppData decodes the semicolon-separated key=value application-data
// string, e.g. "ver=1.0;src=1;tuner=1,115,1,13,...;pids=0,1,16,...".
func parseAppData(s string) (*Packet, error) {
	p := &Packet{}
	haveVer, haveSrc, haveTuner := false, false, false

	for _, field := range strings.Split(s, ";") {
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return nil, &errs.Malformed{Reason: fmt.Sprintf("application-data field %q missing '='", field)}
		}

		switch key {
		case "ver":
			p.Version = value
			haveVer = true
		case "src":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &errs.Malformed{Reason: fmt.Sprintf("src: %v", err)}
			}
			p.Source = n
			haveSrc = true
		case "tuner":
			if err := parseTuner(p, value); err != nil {
				return nil, err
			}
			haveTuner = true
		case "pids":
			pids, err := parseIntList(value)
			if err != nil {
				return nil, &errs.Malformed{Reason: fmt.Sprintf("pids: %v", err)}
			}
			p.Pids = pids
		}
	}

	if !haveVer || !haveSrc || !haveTuner {
		return nil, &errs.Malformed{Reason: "application-data missing one of ver/src/tuner"}
	}

	return p, nil
}

func parseTuner(p *Packet, value string) error {
	fields := strings.Split(value, ",")
	if len(fields) != 12 {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner field must have exactly 12 comma fields, got %d", len(fields))}
	}

	feID, err := strconv.Atoi(fields[0])
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner frontend_id: %v", err)}
	}
	level, err := strconv.Atoi(fields[1])
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner signal_level: %v", err)}
	}
	if level < 0 || level > 255 {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner signal_level %d out of range [0,255]", level)}
	}
	lock, err := parseLock(fields[2])
	if err != nil {
		return err
	}
	quality, err := strconv.Atoi(fields[3])
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner quality: %v", err)}
	}
	if quality < 0 || quality > 15 {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner quality %d out of range [0,15]", quality)}
	}
	frequency, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner frequency: %v", err)}
	}
	pilots, err := parsePilots(fields[8])
	if err != nil {
		return err
	}
	rollOff, err := strconv.ParseFloat(fields[9], 64)
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner roll_off: %v", err)}
	}
	symbolRate, err := strconv.Atoi(fields[10])
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner symbol_rate: %v", err)}
	}
	fecInner, err := strconv.Atoi(fields[11])
	if err != nil {
		return &errs.Malformed{Reason: fmt.Sprintf("tuner fec_inner: %v", err)}
	}

	p.FrontendID = feID
	p.SignalLevel = level
	p.Lock = lock
	p.Quality = quality
	p.Frequency = frequency
	p.Polarisation = fields[5]
	p.System = fields[6]
	p.Type = fields[7]
	p.Pilots = pilots
	p.RollOff = rollOff
	p.SymbolRate = symbolRate
	p.FECInner = fecInner

	return nil
}

// parseLock implements the corrected reading of the lock flag: "1" is
// true, "0" is false, anything else is malformed. The field is a bare
// numeral on the wire, never a boolean keyword.
func parseLock(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, &errs.Malformed{Reason: fmt.Sprintf("tuner lock must be 0 or 1, got %q", s)}
	}
}

func parsePilots(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, &errs.Malformed{Reason: fmt.Sprintf("tuner pilots must be on or off, got %q", s)}
	}
}

func parseIntList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
