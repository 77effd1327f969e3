// Package satip fetches and parses a SAT>IP server's UPnP device
// descriptor, the one external XML dependency this client has.
package satip

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/misternerd/satip-finder/internal/errs"
)

// DeviceInfo describes a SAT>IP server as reported by its device
// descriptor XML.
type DeviceInfo struct {
	Hostname       string
	Manufacturer   string
	ModelName      string
	SerialNumber   string
	Capability     string
	NumberOfTuners int
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf(
		"SAT>IP Device(hostname=%s, manufacturer=%s, modelName=%s, serialNumber=%s, capability=%s, numberOfTuners=%d)",
		d.Hostname, d.Manufacturer, d.ModelName, d.SerialNumber, d.Capability, d.NumberOfTuners,
	)
}

var validCapabilityTypes = map[string]bool{
	"DVBS2": true, "DVBT": true, "DVBT2": true, "DVBC": true, "DVBC2": true,
}

// descriptorXML mirrors the subset of the UPnP root-device descriptor
// this client needs, under the root and SES namespaces.
type descriptorXML struct {
	XMLName xml.Name `xml:"root"`
	Device  struct {
		Manufacturer string `xml:"manufacturer"`
		ModelName    string `xml:"modelName"`
		SerialNumber string `xml:"serialNumber"`
		SatIPCap     string `xml:"X_SATIPCAP"`
	} `xml:"device"`
}

// FetchDescriptor performs the one-shot HTTP GET against descriptorURL
// and decodes the UPnP device descriptor it returns.
func FetchDescriptor(ctx context.Context, descriptorURL string) (*DeviceInfo, error) {
	parsedURL, err := url.Parse(descriptorURL)
	if err != nil {
		return nil, &errs.InvalidArgument{Field: "server-descriptor-url", Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptorURL, nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "build descriptor request", Err: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "fetch device descriptor", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.TransportError{Op: "fetch device descriptor", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.TransportError{Op: "read device descriptor body", Err: err}
	}

	return ParseDescriptor(body, parsedURL.Hostname())
}

// ParseDescriptor decodes raw device descriptor XML. hostname is taken
// from the descriptor URL's authority, not from the document itself.
func ParseDescriptor(raw []byte, hostname string) (*DeviceInfo, error) {
	var doc descriptorXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &errs.InvalidDescriptor{Reason: fmt.Sprintf("unparseable XML: %v", err)}
	}

	manufacturer := strings.TrimSpace(doc.Device.Manufacturer)
	modelName := strings.TrimSpace(doc.Device.ModelName)
	serialNumber := strings.TrimSpace(doc.Device.SerialNumber)
	satIPCap := strings.TrimSpace(doc.Device.SatIPCap)

	if manufacturer == "" || modelName == "" || serialNumber == "" || satIPCap == "" {
		return nil, &errs.InvalidDescriptor{Reason: "missing manufacturer, modelName, serialNumber, or X_SATIPCAP"}
	}

	capability, numberOfTuners, err := parseSatIPCap(satIPCap)
	if err != nil {
		return nil, err
	}

	return &DeviceInfo{
		Hostname:       hostname,
		Manufacturer:   manufacturer,
		ModelName:      modelName,
		SerialNumber:   serialNumber,
		Capability:     capability,
		NumberOfTuners: numberOfTuners,
	}, nil
}

// parseSatIPCap parses an X_SATIPCAP value of form "<TYPE>-<N>".
func parseSatIPCap(raw string) (string, int, error) {
	capType, countStr, ok := strings.Cut(raw, "-")
	if !ok || capType == "" || countStr == "" {
		return "", 0, &errs.InvalidDescriptor{Reason: fmt.Sprintf("X_SATIPCAP %q must be of form TYPE-N", raw)}
	}

	if !validCapabilityTypes[capType] {
		return "", 0, &errs.InvalidDescriptor{Reason: fmt.Sprintf("X_SATIPCAP type %q is not a recognised capability", capType)}
	}

	n, err := strconv.Atoi(countStr)
	if err != nil || n < 1 {
		return "", 0, &errs.InvalidDescriptor{Reason: fmt.Sprintf("X_SATIPCAP tuner count %q must be a positive integer", countStr)}
	}

	return capType, n, nil
}
