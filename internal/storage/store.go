package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Stats() StatsStore
}

// StatsStore holds the tracker's persisted state: today's per-domain
// counters, the date they belong to, the domains already notified today and
// the user's limit overrides.
// Missing values are returned as empty maps; only GetLastResetDate reports
// ErrNotFound.
type StatsStore interface {
	GetTodayStats(ctx context.Context) (DailyStats, error)
	SetTodayStats(ctx context.Context, stats DailyStats) error
	GetLastResetDate(ctx context.Context) (string, error)
	// ResetDay stores empty stats, an empty notified set and the given date
	// in one write.
	ResetDay(ctx context.Context, date string) error
	GetNotified(ctx context.Context) ([]string, error)
	SetNotified(ctx context.Context, domains []string) error
	GetUserLimits(ctx context.Context) (UserLimits, error)
	SetUserLimits(ctx context.Context, limits UserLimits) error
}
