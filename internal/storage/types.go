package storage

import "os"

// Keys under which tracker state is persisted.
const (
	KeyTodayStats    = "todayStats"
	KeyLastResetDate = "lastResetDate"
	KeyUserLimits    = "userLimits"
	KeyNotified      = "notifiedToday"
)

// DateLayout is the layout of stored calendar dates.
const DateLayout = "2006-01-02"

// DailyStats maps a domain key to the seconds accumulated today.
type DailyStats map[string]int64

// Clone returns a copy that can be handed out without sharing the map.
func (s DailyStats) Clone() DailyStats {
	out := make(DailyStats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// UserLimits maps a domain key to a user-chosen daily limit in minutes.
type UserLimits map[string]int

// Clone returns a copy of the limits.
func (l UserLimits) Clone() UserLimits {
	out := make(UserLimits, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
