package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notification is a limit-reached alert for one site.
type Notification struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	SiteName     string    `json:"site_name"`
	LimitMinutes int       `json:"limit_minutes"`
	UsedMinutes  int64     `json:"used_minutes"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// LimitReached builds the alert shown when a site's daily limit is hit.
func LimitReached(domain, siteName string, limitMinutes int, usedMinutes int64, at time.Time) Notification {
	return Notification{
		ID:           uuid.NewString(),
		Domain:       domain,
		SiteName:     siteName,
		LimitMinutes: limitMinutes,
		UsedMinutes:  usedMinutes,
		Title:        "Daily limit reached",
		Body:         fmt.Sprintf("You have reached today's %d-minute limit for %s.", limitMinutes, siteName),
		CreatedAt:    at,
	}
}

// Notifier delivers notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs at warn level.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Warn().
		Str("domain", n.Domain).
		Int("limit_minutes", n.LimitMinutes).
		Int64("used_minutes", n.UsedMinutes).
		Msg(n.Body)
}

// Queue holds pending notifications until the browser extension collects
// them. When full, the oldest entry is dropped.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
	size    int
}

// NewQueue creates a queue holding at most size notifications.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{size: size}
}

// Notify enqueues n.
func (q *Queue) Notify(_ context.Context, n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == q.size {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, n)
}

// Drain returns and clears all pending notifications, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len returns the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify delivers n to every notifier in order.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
