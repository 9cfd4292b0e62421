package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goodtune/snstimer/internal/tabs"
	"github.com/rs/zerolog"
)

// ErrStopped is returned for work submitted after the loop has stopped.
var ErrStopped = errors.New("tracker loop stopped")

type request struct {
	ctx   context.Context
	fn    func(context.Context, *Tracker) error
	reply chan error
}

// Loop owns a Tracker and runs every event, tick and dashboard mutation on a
// single goroutine, so each handler runs to completion before the next.
type Loop struct {
	tracker  *Tracker
	tabs     *tabs.Registry
	interval time.Duration
	logger   zerolog.Logger

	requests chan request
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop ticking every interval.
func NewLoop(tracker *Tracker, registry *tabs.Registry, interval time.Duration, logger zerolog.Logger) *Loop {
	return &Loop{
		tracker:  tracker,
		tabs:     registry,
		interval: interval,
		logger:   logger.With().Str("component", "tracker-loop").Logger(),
		requests: make(chan request),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins processing.
func (l *Loop) Start() {
	go l.run()
	l.logger.Info().
		Dur("tick_interval", l.interval).
		Msg("Tracker loop started")
}

// Stop flushes the open interval and stops the loop. It waits for the
// final flush or for ctx to expire.
func (l *Loop) Stop(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stopChan) })

	select {
	case <-l.done:
		l.logger.Info().Msg("Tracker loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop goroutine and returns its error. Once accepted, fn
// runs to completion even if ctx is cancelled while waiting for the reply.
func (l *Loop) Do(ctx context.Context, fn func(context.Context, *Tracker) error) error {
	req := request{
		ctx:   context.WithoutCancel(ctx),
		fn:    fn,
		reply: make(chan error, 1),
	}

	select {
	case l.requests <- req:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch applies a browser event.
func (l *Loop) Dispatch(ctx context.Context, ev Event) error {
	return l.Do(ctx, func(ctx context.Context, t *Tracker) error {
		return Apply(ctx, t, l.tabs, ev)
	})
}

// Tick runs a checkpoint immediately.
func (l *Loop) Tick(ctx context.Context) error {
	return l.Do(ctx, func(ctx context.Context, t *Tracker) error {
		return t.Tick(ctx)
	})
}

// Status returns a snapshot of the tracker.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	var status Status
	err := l.Do(ctx, func(_ context.Context, t *Tracker) error {
		status = t.Status()
		return nil
	})
	return status, err
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case req := <-l.requests:
			req.reply <- req.fn(req.ctx, l.tracker)

		case <-ticker.C:
			if err := l.tracker.Tick(context.Background()); err != nil {
				l.logger.Error().Err(err).Msg("Tick failed")
			}

		case <-l.stopChan:
			if err := l.tracker.Stop(context.Background()); err != nil {
				l.logger.Error().Err(err).Msg("Final flush failed")
			}
			return
		}
	}
}
