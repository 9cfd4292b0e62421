package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/snstimer/internal/metrics"
	"github.com/goodtune/snstimer/internal/storage"
)

// Init loads persisted state, clearing statistics left over from a
// previous day.
func (t *Tracker) Init(ctx context.Context) error {
	today := dateOf(t.clock.Now())

	last, err := t.store.GetLastResetDate(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load last reset date: %w", err)
	}

	if last != today {
		t.logger.Info().
			Str("last_reset", last).
			Str("today", today).
			Msg("Performing daily reset")
		return t.resetDay(ctx, today, "startup")
	}

	stats, err := t.store.GetTodayStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load today's stats: %w", err)
	}
	notified, err := t.store.GetNotified(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notified domains: %w", err)
	}

	t.stats = stats
	t.day = today
	for _, domain := range notified {
		t.notified[domain] = true
	}

	t.logger.Info().
		Str("date", today).
		Int("domains", len(stats)).
		Msg("Loaded today's statistics")
	return nil
}

// checkDate rolls the statistics over when now falls on a later day than
// the one being accumulated. It runs before any flush so time after
// midnight is never credited to the old day.
func (t *Tracker) checkDate(ctx context.Context, now time.Time) error {
	if !t.config.RolloverCheck || dateOf(now) == t.day {
		return nil
	}
	return t.rollover(ctx, now)
}

// rollover closes the previous day. Time before local midnight belongs to
// the old day and is discarded with it; the open interval continues from
// midnight.
func (t *Tracker) rollover(ctx context.Context, now time.Time) error {
	midnight := startOfDay(now)

	var flushErr error
	if t.session.Active() && t.session.StartedAt.Before(midnight) {
		flushErr = t.flush(ctx, reasonRollover, midnight)
		t.session.StartedAt = midnight
	}

	t.logger.Info().
		Str("previous", t.day).
		Str("today", dateOf(now)).
		Msg("Date changed, rolling over statistics")

	if err := t.resetDay(ctx, dateOf(now), "rollover"); err != nil {
		return errors.Join(flushErr, err)
	}
	return flushErr
}

func (t *Tracker) resetDay(ctx context.Context, today string, trigger string) error {
	if err := t.store.ResetDay(ctx, today); err != nil {
		return fmt.Errorf("failed to reset day: %w", err)
	}

	t.stats = make(storage.DailyStats)
	t.notified = make(map[string]bool)
	t.day = today

	metrics.DailyResets.WithLabelValues(trigger).Inc()
	return nil
}

func dateOf(t time.Time) string {
	return t.Format(storage.DateLayout)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
