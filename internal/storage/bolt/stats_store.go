package bolt

import (
	"context"

	"github.com/goodtune/snstimer/internal/storage"
	"go.etcd.io/bbolt"
)

type statsStore struct {
	db *bbolt.DB
}

func (s *statsStore) GetTodayStats(ctx context.Context) (storage.DailyStats, error) {
	stats, err := getBucketValue[storage.DailyStats](ctx, s.db, bucketState, storage.KeyTodayStats)
	if isNotFound(err) {
		return storage.DailyStats{}, nil
	}
	if err != nil {
		return nil, err
	}
	if *stats == nil {
		return storage.DailyStats{}, nil
	}
	return *stats, nil
}

func (s *statsStore) SetTodayStats(ctx context.Context, stats storage.DailyStats) error {
	if stats == nil {
		stats = storage.DailyStats{}
	}
	return putBucketValues(ctx, s.db, bucketState, map[string]any{
		storage.KeyTodayStats: stats,
	})
}

func (s *statsStore) GetLastResetDate(ctx context.Context) (string, error) {
	date, err := getBucketValue[string](ctx, s.db, bucketState, storage.KeyLastResetDate)
	if err != nil {
		return "", err
	}
	return *date, nil
}

func (s *statsStore) ResetDay(ctx context.Context, date string) error {
	return putBucketValues(ctx, s.db, bucketState, map[string]any{
		storage.KeyTodayStats:    storage.DailyStats{},
		storage.KeyNotified:      []string{},
		storage.KeyLastResetDate: date,
	})
}

func (s *statsStore) GetNotified(ctx context.Context) ([]string, error) {
	domains, err := getBucketValue[[]string](ctx, s.db, bucketState, storage.KeyNotified)
	if isNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if *domains == nil {
		return []string{}, nil
	}
	return *domains, nil
}

func (s *statsStore) SetNotified(ctx context.Context, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	return putBucketValues(ctx, s.db, bucketState, map[string]any{
		storage.KeyNotified: domains,
	})
}

func (s *statsStore) GetUserLimits(ctx context.Context) (storage.UserLimits, error) {
	limits, err := getBucketValue[storage.UserLimits](ctx, s.db, bucketState, storage.KeyUserLimits)
	if isNotFound(err) {
		return storage.UserLimits{}, nil
	}
	if err != nil {
		return nil, err
	}
	if *limits == nil {
		return storage.UserLimits{}, nil
	}
	return *limits, nil
}

func (s *statsStore) SetUserLimits(ctx context.Context, limits storage.UserLimits) error {
	if limits == nil {
		limits = storage.UserLimits{}
	}
	return putBucketValues(ctx, s.db, bucketState, map[string]any{
		storage.KeyUserLimits: limits,
	})
}
