// Package keepalive implements the per-tuner periodic OPTIONS loop that
// keeps an RTSP session alive between SETUP/PLAY and TEARDOWN.
package keepalive

import (
	"time"

	"github.com/misternerd/satip-finder/internal/rtsp"
	"github.com/rs/zerolog"
)

// minInterval is the floor applied to timeout-2, so a server advertising
// a very short timeout never produces a busy loop.
const minInterval = 1 * time.Second

// KeepAlive runs one goroutine per RTSP client sending periodic OPTIONS
// requests at interval = max(1, timeout-2) seconds.
type KeepAlive struct {
	log      zerolog.Logger
	codec    *rtsp.Codec
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// New computes the keep-alive interval from the session timeout reported
// by SETUP. It does not start the loop; call Start for that.
func New(log zerolog.Logger, codec *rtsp.Codec, sessionTimeoutSeconds int) *KeepAlive {
	interval := time.Duration(sessionTimeoutSeconds-2) * time.Second
	if interval < minInterval {
		interval = minInterval
	}

	return &KeepAlive{
		log:      log,
		codec:    codec,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the keep-alive goroutine. It must be called only after
// the owning session's SETUP has succeeded, since the interval depends
// on the server-reported timeout.
func (k *KeepAlive) Start() {
	go k.run()
}

func (k *KeepAlive) run() {
	defer close(k.done)

	for {
		res, err := k.codec.PerformOptions()
		if err != nil {
			k.log.Debug().Err(err).Msg("keep-alive OPTIONS failed, will retry next interval")
		} else if res.StatusCode != 200 {
			k.log.Warn().Int("status", res.StatusCode).Msg("keep-alive OPTIONS returned non-200")
		}

		select {
		case <-k.stop:
			return
		case <-time.After(k.interval):
		}
	}
}

// Close signals the keep-alive loop to stop and waits for it to exit.
// It must return before the owning session closes its codec. Safe to
// call more than once.
func (k *KeepAlive) Close() {
	select {
	case <-k.stop:
		// already closed
	default:
		close(k.stop)
	}
	<-k.done
}
