// Package orchestrator fans out N RtspSessions, one per requested
// tuner, wires their RTCP telemetry to the display and (optionally)
// the telemetry server, and guarantees ordered startup and deterministic
// multi-resource shutdown on signal or error.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/misternerd/satip-finder/internal/channel"
	"github.com/misternerd/satip-finder/internal/display"
	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/misternerd/satip-finder/internal/keepalive"
	"github.com/misternerd/satip-finder/internal/rtcpapp"
	"github.com/misternerd/satip-finder/internal/rtpio"
	"github.com/misternerd/satip-finder/internal/rtpstats"
	"github.com/misternerd/satip-finder/internal/rtsp"
	"github.com/misternerd/satip-finder/internal/satip"
	"github.com/misternerd/satip-finder/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const rtspPort = 554

// clientBasePort and clientPortStride implement the fixed port
// assignment rule: client_rtp_port = 57000+2i, client_rtcp_port = 57001+2i.
const (
	clientBasePort   = 57000
	clientPortStride = 2
)

// TelemetryPublisher is the interface the Telemetry component satisfies;
// kept narrow so tests can fake it.
type TelemetryPublisher interface {
	Publish(update telemetry.Update)
}

// TelemetryServer is the subset of telemetry.Server's lifecycle the
// Orchestrator drives; kept narrow so tests can fake it.
type TelemetryServer interface {
	Start()
	Close()
}

// tunerResources bundles everything opened for one tuner, so shutdown
// can close them as a unit in construction-reverse order.
type tunerResources struct {
	codec     *rtsp.Codec
	session   *rtsp.Session
	receiver  *rtpio.Receiver
	keepAlive *keepalive.KeepAlive
}

// Orchestrator owns every per-tuner resource plus the display sink.
type Orchestrator struct {
	log           zerolog.Logger
	descriptorURL string
	specs         []*channel.Spec
	display       *display.Display
	telemetry     TelemetryPublisher

	tuners []*tunerResources
}

// New builds an Orchestrator. telemetryPublisher may be nil when
// --telemetry-addr was not set.
func New(log zerolog.Logger, descriptorURL string, specs []*channel.Spec, d *display.Display, telemetryPublisher TelemetryPublisher) *Orchestrator {
	return &Orchestrator{
		log:           log,
		descriptorURL: descriptorURL,
		specs:         specs,
		display:       d,
		telemetry:     telemetryPublisher,
	}
}

// Setup fetches the device descriptor, validates tuner count, and runs
// SETUP+PLAY for every requested channel in order. On any failure it
// tears down every previously-started tuner before returning the error.
func (o *Orchestrator) Setup(ctx context.Context) error {
	if len(o.specs) == 0 {
		return &errs.InvalidArgument{Field: "tune", Reason: "at least one --tune must be specified"}
	}

	device, err := satip.FetchDescriptor(ctx, o.descriptorURL)
	if err != nil {
		return err
	}

	o.log.Info().Str("device", device.String()).Msg("connected to SAT>IP device")

	if device.NumberOfTuners < len(o.specs) {
		return &errs.InvalidArgument{
			Field:  "tune",
			Reason: fmt.Sprintf("device advertises %d tuners, %d requested", device.NumberOfTuners, len(o.specs)),
		}
	}

	for i, spec := range o.specs {
		if err := o.setupOneTuner(i, spec, device.Hostname); err != nil {
			o.teardownAll()
			return err
		}
	}

	return nil
}

func (o *Orchestrator) setupOneTuner(index int, spec *channel.Spec, hostname string) error {
	log := o.log.With().Int("tuner", index).Logger()

	codec, err := rtsp.Dial(hostname, rtspPort, log)
	if err != nil {
		return err
	}

	session := rtsp.NewSession(log, codec, spec)
	tuner := &tunerResources{codec: codec, session: session}
	o.tuners = append(o.tuners, tuner)

	clientRTPPort := clientBasePort + clientPortStride*index
	clientRTCPPort := clientRTPPort + 1

	if err := session.Setup(clientRTPPort, clientRTCPPort); err != nil {
		return err
	}

	updateFn := o.display.Register(spec.Label())
	statsTracker := rtpstats.New()

	onRTCP := func(packet []byte) {
		app, err := rtcpapp.ParseFirst(packet)
		if err != nil {
			log.Debug().Err(err).Msg("malformed RTCP APP packet, dropped")
			return
		}
		if app == nil {
			return
		}

		levelPct, qualityPct := app.LevelPct(), app.QualityPct()
		updateFn(levelPct, qualityPct)
		if o.telemetry != nil {
			o.telemetry.Publish(telemetry.Update{Tuner: index, LevelPct: levelPct, QualityPct: qualityPct})
		}
	}

	receiver, err := session.Play([]int{1}, statsTracker.Observe, onRTCP)
	if err != nil {
		return err
	}
	tuner.receiver = receiver

	ka := keepalive.New(log, codec, session.TimeoutSeconds())
	ka.Start()
	tuner.keepAlive = ka

	return nil
}

// Run starts the display (and telemetry server, if configured) and
// blocks until ctx is cancelled, then tears everything down in reverse
// construction order.
func (o *Orchestrator) Run(ctx context.Context, telemetryServer TelemetryServer) {
	o.display.Start()
	if telemetryServer != nil {
		telemetryServer.Start()
	}

	<-ctx.Done()

	// Close the display first so subsequent log lines reach the
	// terminal instead of being overwritten by the alt-screen.
	o.display.Close()
	if telemetryServer != nil {
		telemetryServer.Close()
	}

	o.teardownAll()
}

// teardownAll closes every started tuner's resources in reverse
// construction order, tolerating failures in any one of them. Within
// one tuner, the TEARDOWN request and the receiver's socket shutdown
// don't depend on each other, so they run concurrently via errgroup;
// the codec is only closed once both have finished with it.
func (o *Orchestrator) teardownAll() {
	for i := len(o.tuners) - 1; i >= 0; i-- {
		t := o.tuners[i]

		if t.keepAlive != nil {
			t.keepAlive.Close()
		}

		var g errgroup.Group
		if t.session != nil {
			g.Go(func() error {
				t.session.Teardown()
				return nil
			})
		}
		if t.receiver != nil {
			g.Go(func() error {
				t.receiver.Close()
				return nil
			})
		}
		_ = g.Wait()

		if t.codec != nil {
			t.codec.Close()
		}
	}

	o.tuners = nil
}
