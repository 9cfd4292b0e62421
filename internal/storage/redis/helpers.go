package redis

import (
	"fmt"
	"strconv"

	"github.com/goodtune/snstimer/internal/storage"
)

// parseDailyStats converts a Redis hash to DailyStats
func parseDailyStats(data map[string]string) (storage.DailyStats, error) {
	stats := make(storage.DailyStats, len(data))
	for domain, raw := range data {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse seconds for %s: %w", domain, err)
		}
		stats[domain] = seconds
	}
	return stats, nil
}

// parseUserLimits converts a Redis hash to UserLimits
func parseUserLimits(data map[string]string) (storage.UserLimits, error) {
	limits := make(storage.UserLimits, len(data))
	for domain, raw := range data {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse limit for %s: %w", domain, err)
		}
		limits[domain] = minutes
	}
	return limits, nil
}

func statsFields(stats storage.DailyStats) map[string]interface{} {
	fields := make(map[string]interface{}, len(stats))
	for domain, seconds := range stats {
		fields[domain] = seconds
	}
	return fields
}

func limitFields(limits storage.UserLimits) map[string]interface{} {
	fields := make(map[string]interface{}, len(limits))
	for domain, minutes := range limits {
		fields[domain] = minutes
	}
	return fields
}
