package shaper

import (
	"context"
	"time"

	"github.com/qomet-project/qomet/internal/qlog"
)

// DeadlineTimer drives a periodic reconfiguration call at a fixed
// period, the Go-native replacement for timer/timer.c's POSIX
// setitimer-based interval timer: time.Ticker plus context.Context
// cancellation instead of a signal handler. A missed deadline (fn took
// longer than Period) is logged as a warning, never returned as an
// error, per "timing warning, not fatal" classification.
type DeadlineTimer struct {
	Period time.Duration
	Logger *qlog.Logger
}

// Run calls fn once per Period until ctx is canceled or fn returns an
// error. fn receives the tick time the period timer fired at.
func (d *DeadlineTimer) Run(ctx context.Context, fn func(now time.Time) error) error {
	logger := d.Logger
	if logger == nil {
		logger = qlog.Discard()
	}

	t := time.NewTicker(d.Period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-t.C:
			start := time.Now()
			if err := fn(tick); err != nil {
				return err
			}
			if elapsed := time.Since(start); elapsed > d.Period {
				logger.Warnf(ctx, "shaper reconfigure missed deadline: took %s, period %s", elapsed, d.Period)
			}
		}
	}
}
