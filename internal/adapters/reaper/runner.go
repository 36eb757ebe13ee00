// Package reaper periodically drops expired entries from process-local stores.
// Redis-backed stores expire keys natively and need no reaper.
package reaper

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/prakritea/artisan-studio/internal/observability/statsd"
)

// Sweeper removes expired entries and reports how many it dropped.
type Sweeper interface {
	Sweep() int
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Sweepers map[string]Sweeper
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Runner sweeps every registered store on a fixed interval.
type Runner struct {
	sweepers map[string]Sweeper
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if len(opts.Sweepers) == 0 {
		return nil, errors.New("at least one sweeper is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		sweepers: opts.Sweepers,
		interval: opts.Interval,
		logger:   opts.Logger.With("component", "reaper"),
		metrics:  opts.Metrics,
	}, nil
}

// Run sweeps until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner", "interval", r.interval)

	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reaper runner stopped")
			return nil
		case <-ticker.C:
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs every sweeper a single time.
func (r *Runner) SweepOnce(ctx context.Context) int {
	total := 0
	for name, s := range r.sweepers {
		n := s.Sweep()
		total += n
		if n == 0 {
			continue
		}
		r.logger.DebugContext(ctx, "swept expired entries", "store", name, "count", n)
		if r.metrics != nil {
			r.metrics.Count("reaper.swept", int64(n), map[string]string{"store": name})
		}
	}
	return total
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (r *Runner) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
