// Package polling provides the interval-based fallback used when a
// realtime channel gives up reconnecting. It asks a Fetcher for resource
// status on a fixed cadence until the resource reaches a terminal state,
// the attempt limit is reached, or the caller stops it.
package polling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/errors"
	"github.com/sawtfeel/livesync/internal/metrics"
)

const (
	defaultInterval    = 2 * time.Second
	defaultMaxAttempts = 150
)

// Fetcher retrieves the current processing status of a resource.
type Fetcher interface {
	FetchStatus(ctx context.Context, resourceID string) (domain.ResourceStatus, error)
}

// Update is delivered to the caller after every poll attempt.
type Update struct {
	ResourceID string
	Attempt    int
	Status     domain.ResourceStatus
	Err        error
}

// Options tunes a Poller.
type Options struct {
	Interval    time.Duration // default 2s
	MaxAttempts int           // default 150
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	return o
}

// Poller runs independent polling loops, one per Start call.
type Poller struct {
	fetcher Fetcher
	clock   clockwork.Clock
	opts    Options
	logger  *slog.Logger
}

func NewPoller(fetcher Fetcher, clock clockwork.Clock, opts Options, logger *slog.Logger) *Poller {
	return &Poller{
		fetcher: fetcher,
		clock:   clock,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Start launches a polling loop for resourceID and returns a stop function.
// onUpdate is invoked from the loop goroutine after every attempt,
// including failed ones; a fetch error surfaces in Update.Err and the loop
// keeps going. The loop ends on its own when the status turns terminal or
// MaxAttempts is reached. The stop function is idempotent and safe to call
// after the loop has already finished.
func (p *Poller) Start(ctx context.Context, resourceID string, onUpdate func(Update)) func() {
	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() { once.Do(cancel) }

	go p.run(ctx, stop, resourceID, onUpdate)
	return stop
}

func (p *Poller) run(ctx context.Context, stop func(), resourceID string, onUpdate func(Update)) {
	defer stop()

	p.logger.Info("polling started", "resource_id", resourceID, "interval", p.opts.Interval)
	ticker := p.clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped", "resource_id", resourceID, "attempts", attempt-1)
			return
		case <-ticker.Chan():
		}

		metrics.PollingTicksTotal.Inc()
		status, err := p.fetcher.FetchStatus(ctx, resourceID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.PollingErrorsTotal.Inc()
			p.logger.Warn("poll attempt failed", "resource_id", resourceID, "attempt", attempt, "error", err)
		}
		onUpdate(Update{ResourceID: resourceID, Attempt: attempt, Status: status, Err: err})

		if err == nil && status.Terminal() {
			p.logger.Info("polling finished", "resource_id", resourceID, "status", status.Status, "attempts", attempt)
			return
		}
		if attempt >= p.opts.MaxAttempts {
			p.logger.Warn("polling attempts exhausted", "resource_id", resourceID, "attempts", attempt)
			onUpdate(Update{
				ResourceID: resourceID,
				Attempt:    attempt,
				Err:        errors.Exhaustion(fmt.Sprintf("status polling gave up after %d attempts", attempt), nil),
			})
			return
		}
	}
}
