package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goodtune/snstimer/internal/metrics"
	"github.com/goodtune/snstimer/internal/notify"
	"github.com/goodtune/snstimer/internal/sites"
	"github.com/goodtune/snstimer/internal/storage"
	"github.com/rs/zerolog"
)

// Tracker accumulates foreground time per tracked domain.
//
// A Tracker is not safe for concurrent use; Loop serialises access to it.
type Tracker struct {
	catalog  *sites.Catalog
	store    storage.StatsStore
	notifier notify.Notifier
	clock    Clock
	config   Config
	logger   zerolog.Logger

	session  Session
	day      string
	stats    storage.DailyStats
	notified map[string]bool
}

// New creates a tracker. Call Init before feeding it events.
func New(catalog *sites.Catalog, store storage.StatsStore, notifier notify.Notifier, clock Clock, config Config, logger zerolog.Logger) *Tracker {
	if clock == nil {
		clock = RealClock{}
	}
	if notifier == nil {
		notifier = notify.Multi(nil)
	}

	return &Tracker{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		clock:    clock,
		config:   config,
		logger:   logger.With().Str("component", "tracker").Logger(),
		stats:    make(storage.DailyStats),
		notified: make(map[string]bool),
	}
}

// Navigate handles the foreground tab showing rawURL.
// Staying on the same tracked domain keeps the open interval running.
func (t *Tracker) Navigate(ctx context.Context, rawURL string) error {
	now := t.clock.Now()
	rolloverErr := t.checkDate(ctx, now)

	domain, tracked := t.catalog.Classify(rawURL)
	if tracked && t.session.Domain == domain {
		return rolloverErr
	}

	var err error
	if t.session.Active() {
		err = t.flush(ctx, reasonNavigate, now)
	}

	if tracked {
		t.start(domain)
	} else {
		t.stop()
	}
	return errors.Join(rolloverErr, err)
}

// FocusLost handles the browser losing focus.
func (t *Tracker) FocusLost(ctx context.Context) error {
	return t.end(ctx, reasonFocus)
}

// TabClosed handles the tracked tab being closed.
func (t *Tracker) TabClosed(ctx context.Context) error {
	return t.end(ctx, reasonTabClose)
}

// Stop flushes any open interval. Used on shutdown.
func (t *Tracker) Stop(ctx context.Context) error {
	return t.end(ctx, reasonShutdown)
}

// Tick checkpoints the open interval so usage is visible while a tab stays
// in the foreground, and rolls statistics over when the date has changed.
func (t *Tracker) Tick(ctx context.Context) error {
	now := t.clock.Now()

	if err := t.checkDate(ctx, now); err != nil {
		return err
	}

	if !t.session.Active() {
		return nil
	}

	err := t.flush(ctx, reasonTick, now)
	t.session.StartedAt = now
	return err
}

// Status returns a snapshot of the tracker state.
func (t *Tracker) Status() Status {
	return Status{
		Date:    t.day,
		Session: t.session,
		Stats:   t.stats.Clone(),
	}
}

// Session returns the current tracking state.
func (t *Tracker) Session() Session {
	return t.session
}

// UpdateLimit stores a per-domain limit override. The caller validates the
// value. A changed limit re-arms the domain's notification for today.
func (t *Tracker) UpdateLimit(ctx context.Context, domain string, minutes int) error {
	limits, err := t.store.GetUserLimits(ctx)
	if err != nil {
		return fmt.Errorf("failed to load user limits: %w", err)
	}

	limits[domain] = minutes
	if err := t.store.SetUserLimits(ctx, limits); err != nil {
		return fmt.Errorf("failed to save user limits: %w", err)
	}

	if t.notified[domain] {
		delete(t.notified, domain)
		if err := t.store.SetNotified(ctx, t.notifiedDomains()); err != nil {
			return fmt.Errorf("failed to save notified domains: %w", err)
		}
	}

	t.logger.Info().
		Str("domain", domain).
		Int("limit_minutes", minutes).
		Msg("Daily limit updated")

	return nil
}

// ResetStats clears today's statistics. An open interval restarts now so
// time before the reset is not credited afterwards.
func (t *Tracker) ResetStats(ctx context.Context) error {
	t.stats = make(storage.DailyStats)
	t.notified = make(map[string]bool)
	if t.session.Active() {
		t.session.StartedAt = t.clock.Now()
	}

	if err := t.store.SetTodayStats(ctx, t.stats.Clone()); err != nil {
		return fmt.Errorf("failed to clear today's stats: %w", err)
	}
	if err := t.store.SetNotified(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear notified domains: %w", err)
	}

	metrics.DailyResets.WithLabelValues("manual").Inc()
	t.logger.Info().Msg("Today's statistics reset")
	return nil
}

func (t *Tracker) start(domain string) {
	t.session = Session{Domain: domain, StartedAt: t.clock.Now()}
	metrics.TrackingActive.Set(1)

	t.logger.Debug().Str("domain", domain).Msg("Tracking started")
}

func (t *Tracker) stop() {
	t.session = Session{}
	metrics.TrackingActive.Set(0)
}

func (t *Tracker) end(ctx context.Context, reason string) error {
	if !t.session.Active() {
		return nil
	}
	now := t.clock.Now()
	rolloverErr := t.checkDate(ctx, now)
	err := t.flush(ctx, reason, now)
	t.stop()
	return errors.Join(rolloverErr, err)
}

// flush credits the whole seconds between the interval start and until to
// the tracked domain, persists the statistics and runs the limit check.
func (t *Tracker) flush(ctx context.Context, reason string, until time.Time) error {
	domain := t.session.Domain
	elapsed := int64(until.Sub(t.session.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	t.stats[domain] += elapsed

	metrics.Flushes.WithLabelValues(reason).Inc()
	metrics.TrackedSeconds.WithLabelValues(domain).Add(float64(elapsed))

	t.logger.Debug().
		Str("domain", domain).
		Str("reason", reason).
		Int64("elapsed_seconds", elapsed).
		Int64("total_seconds", t.stats[domain]).
		Msg("Flushed session")

	var persistErr error
	if err := t.store.SetTodayStats(ctx, t.stats.Clone()); err != nil {
		metrics.FlushErrors.Inc()
		t.logger.Error().Err(err).Str("domain", domain).Msg("Failed to persist stats")
		persistErr = fmt.Errorf("failed to persist stats: %w", err)
	}

	return errors.Join(persistErr, t.checkLimit(ctx, domain))
}

// checkLimit notifies when the domain's whole minutes reach its limit.
func (t *Tracker) checkLimit(ctx context.Context, domain string) error {
	site, ok := t.catalog.Lookup(domain)
	if !ok {
		return nil
	}

	limits, err := t.store.GetUserLimits(ctx)
	if err != nil {
		return fmt.Errorf("failed to load user limits: %w", err)
	}

	limit := site.DefaultLimit
	if override, ok := limits[domain]; ok && override > 0 {
		limit = override
	}

	used := t.stats[domain] / 60
	if used < int64(limit) {
		return nil
	}
	if t.notified[domain] && !t.config.RepeatNotifications {
		return nil
	}
	t.notified[domain] = true

	var persistErr error
	if err := t.store.SetNotified(ctx, t.notifiedDomains()); err != nil {
		persistErr = fmt.Errorf("failed to save notified domains: %w", err)
	}

	t.notifier.Notify(ctx, notify.LimitReached(domain, site.Name, limit, used, t.clock.Now()))
	metrics.LimitNotifications.WithLabelValues(domain).Inc()

	t.logger.Info().
		Str("domain", domain).
		Int("limit_minutes", limit).
		Int64("used_minutes", used).
		Msg("Daily limit reached")

	return persistErr
}

func (t *Tracker) notifiedDomains() []string {
	domains := make([]string, 0, len(t.notified))
	for domain := range t.notified {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
