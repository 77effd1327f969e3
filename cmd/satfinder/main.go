// Command satfinder is a SAT>IP satellite-finder client: it SETUPs and
// PLAYs one RTSP session per requested transponder and displays the
// server's RTCP-reported signal level and quality for each.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/misternerd/satip-finder/internal/channel"
	"github.com/misternerd/satip-finder/internal/display"
	"github.com/misternerd/satip-finder/internal/errs"
	"github.com/misternerd/satip-finder/internal/logging"
	"github.com/misternerd/satip-finder/internal/orchestrator"
	"github.com/misternerd/satip-finder/internal/telemetry"
)

type cli struct {
	ServerDescriptorURL string   `short:"s" name:"server-descriptor-url" required:"" help:"Full URL of the SAT>IP server's UPnP device descriptor XML."`
	Tune                []string `short:"t" name:"tune" required:"" help:"frequency,polarisation,modulation_system,symbol_rate,fec[,name] — repeat once per tuner."`
	TelemetryAddr       string   `name:"telemetry-addr" help:"Optional host:port to serve a websocket telemetry feed on."`
	Verbose             bool     `short:"v" name:"verbose" help:"Enable debug logging."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("satfinder"),
		kong.Description("A SAT>IP satellite-finder client."),
	)

	log := logging.Init(c.Verbose)

	specs, err := parseTuneArgs(c.Tune)
	if err != nil {
		log.Error().Err(err).Msg("invalid --tune argument")
		os.Exit(1)
	}

	var telemetryServer *telemetry.Server
	var telemetryPublisher orchestrator.TelemetryPublisher
	if c.TelemetryAddr != "" {
		telemetryServer = telemetry.New(logging.For(log, "telemetry"), c.TelemetryAddr)
		telemetryPublisher = telemetryServer
	}

	d := display.New()
	orch := orchestrator.New(logging.For(log, "orchestrator"), c.ServerDescriptorURL, specs, d, telemetryPublisher)

	if err := orch.Setup(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to set up tuners")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received termination signal, shutting down")
		cancel()
	}()

	var ts orchestrator.TelemetryServer
	if telemetryServer != nil {
		ts = telemetryServer
	}

	orch.Run(ctx, ts)
}

// parseTuneArgs parses the repeatable --tune flag into validated
// ChannelSpecs, assigning frontend indices 1..N in argument order.
func parseTuneArgs(tunes []string) ([]*channel.Spec, error) {
	if len(tunes) == 0 {
		return nil, &errs.InvalidArgument{Field: "tune", Reason: "at least one --tune must be specified"}
	}

	specs := make([]*channel.Spec, 0, len(tunes))

	for i, tune := range tunes {
		parts := strings.Split(tune, ",")
		if len(parts) < 5 || len(parts) > 6 {
			return nil, &errs.InvalidArgument{Field: "tune", Reason: fmt.Sprintf("%q must have 5 or 6 comma-separated fields", tune)}
		}

		frequency, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, &errs.InvalidArgument{Field: "tune", Reason: fmt.Sprintf("invalid frequency in %q", tune)}
		}
		polarisation := parts[1]
		modulationSystem := parts[2]
		symbolRate, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, &errs.InvalidArgument{Field: "tune", Reason: fmt.Sprintf("invalid symbol_rate in %q", tune)}
		}
		fec, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, &errs.InvalidArgument{Field: "tune", Reason: fmt.Sprintf("invalid fec in %q", tune)}
		}

		modulationType := "qpsk"
		if modulationSystem == "dvbs2" {
			modulationType = "8psk"
		}

		opts := []channel.Option{channel.WithFrontend(i + 1)}
		if len(parts) == 6 && strings.TrimSpace(parts[5]) != "" {
			opts = append(opts, channel.WithDisplayName(strings.TrimSpace(parts[5])))
		}

		spec, err := channel.New(frequency, symbolRate, modulationSystem, modulationType, polarisation, fec, 0.35, opts...)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
