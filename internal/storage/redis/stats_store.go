package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodtune/snstimer/internal/storage"
	"github.com/redis/go-redis/v9"
)

type statsStore struct {
	client *redis.Client
	prefix string
}

func (s *statsStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// GetTodayStats reads the per-domain seconds hash
func (s *statsStore) GetTodayStats(ctx context.Context) (storage.DailyStats, error) {
	data, err := s.client.HGetAll(ctx, s.key(storage.KeyTodayStats)).Result()
	if err != nil {
		return nil, err
	}
	return parseDailyStats(data)
}

// SetTodayStats replaces the per-domain seconds hash
func (s *statsStore) SetTodayStats(ctx context.Context, stats storage.DailyStats) error {
	key := s.key(storage.KeyTodayStats)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(stats) > 0 {
			pipe.HSet(ctx, key, statsFields(stats))
		}
		return nil
	})
	return err
}

// GetLastResetDate returns storage.ErrNotFound when no reset has happened yet
func (s *statsStore) GetLastResetDate(ctx context.Context) (string, error) {
	date, err := s.client.Get(ctx, s.key(storage.KeyLastResetDate)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return date, nil
}

// ResetDay clears today's stats and records the date in one MULTI/EXEC
func (s *statsStore) ResetDay(ctx context.Context, date string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(storage.KeyTodayStats), s.key(storage.KeyNotified))
		pipe.Set(ctx, s.key(storage.KeyLastResetDate), date, 0)
		return nil
	})
	return err
}

// GetNotified lists the domains already notified today
func (s *statsStore) GetNotified(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.key(storage.KeyNotified)).Result()
}

// SetNotified replaces the set of domains notified today
func (s *statsStore) SetNotified(ctx context.Context, domains []string) error {
	key := s.key(storage.KeyNotified)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(domains) > 0 {
			members := make([]any, len(domains))
			for i, d := range domains {
				members[i] = d
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	return err
}

// GetUserLimits reads the per-domain limit overrides
func (s *statsStore) GetUserLimits(ctx context.Context) (storage.UserLimits, error) {
	data, err := s.client.HGetAll(ctx, s.key(storage.KeyUserLimits)).Result()
	if err != nil {
		return nil, err
	}
	return parseUserLimits(data)
}

// SetUserLimits replaces the per-domain limit overrides
func (s *statsStore) SetUserLimits(ctx context.Context, limits storage.UserLimits) error {
	key := s.key(storage.KeyUserLimits)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(limits) > 0 {
			pipe.HSet(ctx, key, limitFields(limits))
		}
		return nil
	})
	return err
}
