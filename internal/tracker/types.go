package tracker

import (
	"time"

	"github.com/goodtune/snstimer/internal/storage"
)

// Session is the open tracking interval. The zero value is Idle.
type Session struct {
	Domain    string    `json:"domain,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Active reports whether a domain is being tracked.
func (s Session) Active() bool {
	return s.Domain != ""
}

// Status is a point-in-time view of the tracker.
type Status struct {
	Date    string             `json:"date"`
	Session Session            `json:"session"`
	Stats   storage.DailyStats `json:"stats"`
}

// Flush triggers, used as metric labels and log fields.
const (
	reasonNavigate = "navigate"
	reasonFocus    = "focus_lost"
	reasonTabClose = "tab_closed"
	reasonTick     = "tick"
	reasonRollover = "rollover"
	reasonShutdown = "shutdown"
)

// Config holds tracker behaviour switches.
type Config struct {
	// RepeatNotifications emits a limit notification on every flush at or
	// above the limit instead of once per domain per day.
	RepeatNotifications bool

	// RolloverCheck re-checks the calendar date on every tick and resets
	// the statistics when the day changes.
	RolloverCheck bool
}
