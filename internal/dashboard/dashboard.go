// Package dashboard implements the display-surface operations: the usage
// summary, limit edits, resetting today and exporting.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodtune/snstimer/internal/config"
	"github.com/goodtune/snstimer/internal/sites"
	"github.com/goodtune/snstimer/internal/storage"
	"github.com/goodtune/snstimer/internal/tracker"
)

var (
	// ErrUnknownSite is returned for a domain outside the catalog.
	ErrUnknownSite = errors.New("unknown site")

	// ErrLimitOutOfRange is returned for limits outside 1-1440 minutes.
	ErrLimitOutOfRange = errors.New("limit out of range")
)

// WarningPercentage is the usage share at which a site is flagged.
const WarningPercentage = 90

// Executor runs work against the tracker. *tracker.Loop implements it.
type Executor interface {
	Do(ctx context.Context, fn func(context.Context, *tracker.Tracker) error) error
}

// SiteSummary is one row of the usage display.
type SiteSummary struct {
	Domain       string  `json:"domain"`
	Name         string  `json:"name"`
	Icon         string  `json:"icon,omitempty"`
	Seconds      int64   `json:"seconds"`
	MinutesUsed  int64   `json:"minutes_used"`
	LimitMinutes int     `json:"limit_minutes"`
	Percentage   float64 `json:"percentage"`
	Warning      bool    `json:"warning"`
}

// Tracking describes the open tracking interval.
type Tracking struct {
	Domain string    `json:"domain"`
	Since  time.Time `json:"since"`
}

// Summary is the full usage display for today.
type Summary struct {
	Date     string        `json:"date"`
	Sites    []SiteSummary `json:"sites"`
	Tracking *Tracking     `json:"tracking"`
}

// ExportDocument is the downloadable snapshot of today's data.
type ExportDocument struct {
	TodayStats storage.DailyStats `json:"todayStats"`
	UserLimits storage.UserLimits `json:"userLimits"`
	ExportedAt time.Time          `json:"exportedAt"`
}

// Service serves dashboard requests.
type Service struct {
	catalog *sites.Catalog
	store   storage.StatsStore
	exec    Executor
	clock   tracker.Clock
}

// NewService creates a dashboard service.
func NewService(catalog *sites.Catalog, store storage.StatsStore, exec Executor, clock tracker.Clock) *Service {
	if clock == nil {
		clock = tracker.RealClock{}
	}
	return &Service{catalog: catalog, store: store, exec: exec, clock: clock}
}

// Summary returns usage for every site in catalog order.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var (
		status tracker.Status
		limits storage.UserLimits
	)
	err := s.exec.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		status = t.Status()
		var err error
		limits, err = s.store.GetUserLimits(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	summary := &Summary{
		Date:  status.Date,
		Sites: Summarize(s.catalog, status.Stats, limits),
	}
	if status.Session.Active() {
		summary.Tracking = &Tracking{
			Domain: status.Session.Domain,
			Since:  status.Session.StartedAt,
		}
	}
	return summary, nil
}

// Summarize builds one row per catalog site.
func Summarize(catalog *sites.Catalog, stats storage.DailyStats, limits storage.UserLimits) []SiteSummary {
	all := catalog.All()
	rows := make([]SiteSummary, 0, len(all))
	for _, site := range all {
		seconds := stats[site.Key]
		minutes := seconds / 60
		limit := EffectiveLimit(site, limits)

		pct := float64(minutes) / float64(limit) * 100
		if pct > 100 {
			pct = 100
		}

		rows = append(rows, SiteSummary{
			Domain:       site.Key,
			Name:         site.Name,
			Icon:         site.Icon,
			Seconds:      seconds,
			MinutesUsed:  minutes,
			LimitMinutes: limit,
			Percentage:   pct,
			Warning:      pct >= WarningPercentage,
		})
	}
	return rows
}

// EffectiveLimit returns the user override for a site, else its default.
func EffectiveLimit(site sites.Site, limits storage.UserLimits) int {
	if v, ok := limits[site.Key]; ok && v > 0 {
		return v
	}
	return site.DefaultLimit
}

// SetLimit stores a daily limit override for domain.
func (s *Service) SetLimit(ctx context.Context, domain string, minutes int) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if _, ok := s.catalog.Lookup(domain); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSite, domain)
	}
	if minutes < config.MinLimitMinutes || minutes > config.MaxLimitMinutes {
		return fmt.Errorf("%w: %d not within %d-%d minutes",
			ErrLimitOutOfRange, minutes, config.MinLimitMinutes, config.MaxLimitMinutes)
	}

	return s.exec.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		return t.UpdateLimit(ctx, domain, minutes)
	})
}

// ResetToday clears today's statistics.
func (s *Service) ResetToday(ctx context.Context) error {
	return s.exec.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		return t.ResetStats(ctx)
	})
}

// Export returns today's statistics and limits.
func (s *Service) Export(ctx context.Context) (*ExportDocument, error) {
	doc := &ExportDocument{}
	err := s.exec.Do(ctx, func(ctx context.Context, _ *tracker.Tracker) error {
		stats, err := s.store.GetTodayStats(ctx)
		if err != nil {
			return err
		}
		limits, err := s.store.GetUserLimits(ctx)
		if err != nil {
			return err
		}
		doc.TodayStats = stats
		doc.UserLimits = limits
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}

	doc.ExportedAt = s.clock.Now()
	return doc, nil
}

// ExportFilename names an export taken at t.
func ExportFilename(t time.Time) string {
	return "snstimer-export-" + t.Format("2006-01-02T150405") + ".json"
}
