package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/snstimer/internal/notify"
	"github.com/goodtune/snstimer/internal/sites"
	"github.com/goodtune/snstimer/internal/storage"
	"github.com/goodtune/snstimer/internal/storage/bolt"
	"github.com/rs/zerolog"
)

var testStart = time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type testEnv struct {
	tracker  *Tracker
	store    storage.StatsStore
	clock    *TestClock
	notifier *recordingNotifier
}

func openTestStore(t *testing.T) storage.StatsStore {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "snstimer.bolt"))
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store.Stats()
}

func newTestEnv(t *testing.T, cfg Config, seed func(storage.StatsStore)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    openTestStore(t),
		clock:    NewTestClock(testStart),
		notifier: &recordingNotifier{},
	}
	if seed != nil {
		seed(env.store)
	}

	env.tracker = New(sites.Default(), env.store, env.notifier, env.clock, cfg, zerolog.Nop())
	if err := env.tracker.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return env
}

// seedToday marks the store as already reset today with the given stats.
func seedToday(stats storage.DailyStats, limits storage.UserLimits) func(storage.StatsStore) {
	return func(s storage.StatsStore) {
		ctx := context.Background()
		_ = s.ResetDay(ctx, testStart.Format(storage.DateLayout))
		if stats != nil {
			_ = s.SetTodayStats(ctx, stats)
		}
		if limits != nil {
			_ = s.SetUserLimits(ctx, limits)
		}
	}
}

func (e *testEnv) storedStats(t *testing.T) storage.DailyStats {
	t.Helper()
	stats, err := e.store.GetTodayStats(context.Background())
	if err != nil {
		t.Fatalf("GetTodayStats() error = %v", err)
	}
	return stats
}

func TestTrackThenFocusLost(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	ctx := context.Background()

	if err := env.tracker.Navigate(ctx, "https://m.youtube.com/watch?v=abc"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if got := env.tracker.Session().Domain; got != "youtube.com" {
		t.Fatalf("tracking %q, want youtube.com", got)
	}

	env.clock.Advance(125 * time.Second)
	if err := env.tracker.FocusLost(ctx); err != nil {
		t.Fatalf("FocusLost() error = %v", err)
	}

	if env.tracker.Session().Active() {
		t.Error("expected Idle after focus lost")
	}
	if got := env.storedStats(t)["youtube.com"]; got != 125 {
		t.Errorf("stored youtube.com = %d, want 125", got)
	}
}

func TestNavigateSameDomainKeepsInterval(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://www.youtube.com/")
	started := env.tracker.Session().StartedAt

	env.clock.Advance(30 * time.Second)
	_ = env.tracker.Navigate(ctx, "https://youtube.com/feed/subscriptions")

	if got := env.tracker.Session().StartedAt; !got.Equal(started) {
		t.Errorf("StartedAt moved from %v to %v", started, got)
	}
	if got := env.storedStats(t)["youtube.com"]; got != 0 {
		t.Errorf("unexpected flush of %d seconds", got)
	}
}

func TestNavigateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		next     string
		tracking string
	}{
		{"to another tracked site", "https://twitter.com/home", "twitter.com"},
		{"to untracked site", "https://example.com/", ""},
		{"to invalid url", "chrome://newtab", ""},
		{"to empty url", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{}, nil)
			ctx := context.Background()

			_ = env.tracker.Navigate(ctx, "https://instagram.com/")
			env.clock.Advance(42 * time.Second)

			if err := env.tracker.Navigate(ctx, tt.next); err != nil {
				t.Fatalf("Navigate() error = %v", err)
			}

			if got := env.tracker.Session().Domain; got != tt.tracking {
				t.Errorf("tracking %q, want %q", got, tt.tracking)
			}
			if got := env.storedStats(t)["instagram.com"]; got != 42 {
				t.Errorf("instagram.com = %d, want 42", got)
			}
		})
	}
}

func TestFlushFloorsSecondsAndIgnoresClockSkew(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://facebook.com/")
	env.clock.Advance(1999 * time.Millisecond)
	_ = env.tracker.FocusLost(ctx)

	_ = env.tracker.Navigate(ctx, "https://facebook.com/")
	env.clock.Advance(-time.Hour)
	_ = env.tracker.FocusLost(ctx)

	if got := env.storedStats(t)["facebook.com"]; got != 1 {
		t.Errorf("facebook.com = %d, want 1", got)
	}
}

func TestIdleEventsAreNoOps(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	ctx := context.Background()

	if err := env.tracker.FocusLost(ctx); err != nil {
		t.Errorf("FocusLost() error = %v", err)
	}
	if err := env.tracker.TabClosed(ctx); err != nil {
		t.Errorf("TabClosed() error = %v", err)
	}
	if err := env.tracker.Tick(ctx); err != nil {
		t.Errorf("Tick() error = %v", err)
	}
	if got := env.storedStats(t); len(got) != 0 {
		t.Errorf("expected no stats, got %v", got)
	}
}

func TestTickCheckpoints(t *testing.T) {
	env := newTestEnv(t, Config{RolloverCheck: true}, nil)
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://tiktok.com/@someone")
	env.clock.Advance(time.Minute)

	if err := env.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if got := env.storedStats(t)["tiktok.com"]; got != 60 {
		t.Errorf("after tick tiktok.com = %d, want 60", got)
	}
	if got := env.tracker.Session().StartedAt; !got.Equal(env.clock.Now()) {
		t.Errorf("StartedAt = %v, want %v", got, env.clock.Now())
	}

	env.clock.Advance(30 * time.Second)
	_ = env.tracker.TabClosed(ctx)

	if got := env.storedStats(t)["tiktok.com"]; got != 90 {
		t.Errorf("after close tiktok.com = %d, want 90", got)
	}
}

func TestLimitNotification(t *testing.T) {
	tests := []struct {
		name   string
		repeat bool
		want   int
	}{
		{"once per day", false, 1},
		{"repeat on every flush", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{RepeatNotifications: tt.repeat},
				seedToday(storage.DailyStats{"youtube.com": 3540}, nil))
			ctx := context.Background()

			_ = env.tracker.Navigate(ctx, "https://youtube.com/")
			env.clock.Advance(59 * time.Second)
			_ = env.tracker.FocusLost(ctx)
			if env.notifier.count() != 0 {
				t.Fatalf("notified at 3599 seconds")
			}

			_ = env.tracker.Navigate(ctx, "https://youtube.com/")
			env.clock.Advance(time.Second)
			_ = env.tracker.FocusLost(ctx)
			if env.notifier.count() != 1 {
				t.Fatalf("got %d notifications at 3600 seconds, want 1", env.notifier.count())
			}

			_ = env.tracker.Navigate(ctx, "https://youtube.com/")
			env.clock.Advance(time.Minute)
			_ = env.tracker.FocusLost(ctx)

			if got := env.notifier.count(); got != tt.want {
				t.Errorf("got %d notifications, want %d", got, tt.want)
			}

			n := env.notifier.got[0]
			if n.Domain != "youtube.com" || n.LimitMinutes != 60 || n.UsedMinutes != 60 {
				t.Errorf("unexpected notification %+v", n)
			}
		})
	}
}

func TestLimitUsesUserOverride(t *testing.T) {
	env := newTestEnv(t, Config{},
		seedToday(storage.DailyStats{"tiktok.com": 840}, storage.UserLimits{"tiktok.com": 15}))
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://www.tiktok.com/")
	env.clock.Advance(time.Minute)
	_ = env.tracker.FocusLost(ctx)

	if env.notifier.count() != 1 {
		t.Fatalf("got %d notifications, want 1", env.notifier.count())
	}
	if got := env.notifier.got[0].LimitMinutes; got != 15 {
		t.Errorf("LimitMinutes = %d, want 15", got)
	}
}

func TestUpdateLimitRearmsNotification(t *testing.T) {
	env := newTestEnv(t, Config{}, seedToday(storage.DailyStats{"twitter.com": 1200}, nil))
	ctx := context.Background()

	if err := env.tracker.UpdateLimit(ctx, "twitter.com", 10); err != nil {
		t.Fatalf("UpdateLimit() error = %v", err)
	}

	_ = env.tracker.Navigate(ctx, "https://twitter.com/")
	env.clock.Advance(time.Second)
	_ = env.tracker.FocusLost(ctx)

	if err := env.tracker.UpdateLimit(ctx, "twitter.com", 20); err != nil {
		t.Fatalf("UpdateLimit() error = %v", err)
	}

	_ = env.tracker.Navigate(ctx, "https://twitter.com/")
	env.clock.Advance(time.Second)
	_ = env.tracker.FocusLost(ctx)

	if got := env.notifier.count(); got != 2 {
		t.Errorf("got %d notifications, want 2", got)
	}

	limits, _ := env.store.GetUserLimits(ctx)
	if limits["twitter.com"] != 20 {
		t.Errorf("stored limit = %d, want 20", limits["twitter.com"])
	}
}

func TestInitResetsStaleDay(t *testing.T) {
	seed := func(s storage.StatsStore) {
		ctx := context.Background()
		_ = s.ResetDay(ctx, "2024-01-14")
		_ = s.SetTodayStats(ctx, storage.DailyStats{"youtube.com": 4000})
		_ = s.SetUserLimits(ctx, storage.UserLimits{"youtube.com": 30})
	}
	env := newTestEnv(t, Config{}, seed)
	ctx := context.Background()

	if got := env.storedStats(t); len(got) != 0 {
		t.Errorf("expected cleared stats, got %v", got)
	}
	date, err := env.store.GetLastResetDate(ctx)
	if err != nil || date != "2024-01-15" {
		t.Errorf("last reset = %q (%v), want 2024-01-15", date, err)
	}
	limits, _ := env.store.GetUserLimits(ctx)
	if limits["youtube.com"] != 30 {
		t.Errorf("limits should survive the reset, got %v", limits)
	}
}

func TestInitKeepsTodaysStats(t *testing.T) {
	env := newTestEnv(t, Config{}, seedToday(storage.DailyStats{"instagram.com": 300}, nil))

	status := env.tracker.Status()
	if status.Date != "2024-01-15" {
		t.Errorf("Date = %q, want 2024-01-15", status.Date)
	}
	if status.Stats["instagram.com"] != 300 {
		t.Errorf("instagram.com = %d, want 300", status.Stats["instagram.com"])
	}
}

func TestTickRollsOverAtMidnight(t *testing.T) {
	env := newTestEnv(t, Config{RolloverCheck: true}, nil)
	ctx := context.Background()

	env.clock.Set(time.Date(2024, 1, 15, 23, 59, 0, 0, time.Local))
	_ = env.tracker.Navigate(ctx, "https://youtube.com/")

	env.clock.Set(time.Date(2024, 1, 16, 0, 0, 30, 0, time.Local))
	if err := env.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	status := env.tracker.Status()
	if status.Date != "2024-01-16" {
		t.Errorf("Date = %q, want 2024-01-16", status.Date)
	}
	if got := env.storedStats(t)["youtube.com"]; got != 30 {
		t.Errorf("youtube.com = %d, want 30 seconds after midnight", got)
	}
	if !status.Session.Active() {
		t.Error("tracking should continue across the rollover")
	}
	date, _ := env.store.GetLastResetDate(ctx)
	if date != "2024-01-16" {
		t.Errorf("last reset = %q, want 2024-01-16", date)
	}
}

func TestEventAfterMidnightCreditsNewDay(t *testing.T) {
	tests := []struct {
		name  string
		event func(context.Context, *Tracker) error
	}{
		{"focus lost", func(ctx context.Context, tr *Tracker) error { return tr.FocusLost(ctx) }},
		{"tab closed", func(ctx context.Context, tr *Tracker) error { return tr.TabClosed(ctx) }},
		{"navigate away", func(ctx context.Context, tr *Tracker) error {
			return tr.Navigate(ctx, "https://example.com/")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{RolloverCheck: true}, nil)
			ctx := context.Background()

			env.clock.Set(time.Date(2024, 1, 15, 23, 59, 50, 0, time.Local))
			_ = env.tracker.Navigate(ctx, "https://youtube.com/")

			env.clock.Set(time.Date(2024, 1, 16, 0, 0, 30, 0, time.Local))
			if err := tt.event(ctx, env.tracker); err != nil {
				t.Fatalf("event error = %v", err)
			}

			if got := env.tracker.Status().Date; got != "2024-01-16" {
				t.Errorf("Date = %q, want 2024-01-16", got)
			}
			if got := env.storedStats(t)["youtube.com"]; got != 30 {
				t.Errorf("youtube.com = %d, want 30 seconds after midnight", got)
			}

			// A later tick on the same day must not reset again.
			_ = env.tracker.Navigate(ctx, "https://youtube.com/")
			env.clock.Advance(20 * time.Second)
			if err := env.tracker.Tick(ctx); err != nil {
				t.Fatalf("Tick() error = %v", err)
			}
			if got := env.storedStats(t)["youtube.com"]; got != 50 {
				t.Errorf("youtube.com = %d, want 50", got)
			}
		})
	}
}

func TestNavigateOnNewDayWhileIdleRollsOver(t *testing.T) {
	env := newTestEnv(t, Config{RolloverCheck: true}, seedToday(storage.DailyStats{"twitter.com": 900}, nil))
	ctx := context.Background()

	env.clock.Set(time.Date(2024, 1, 16, 7, 0, 0, 0, time.Local))
	_ = env.tracker.Navigate(ctx, "https://twitter.com/")
	env.clock.Advance(15 * time.Second)
	_ = env.tracker.Navigate(ctx, "https://facebook.com/")

	stats := env.storedStats(t)
	if stats["twitter.com"] != 15 {
		t.Errorf("twitter.com = %d, want 15", stats["twitter.com"])
	}
}

func TestTickWithoutRolloverCheck(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	env.clock.Set(time.Date(2024, 1, 16, 8, 0, 0, 0, time.Local))
	_ = env.tracker.Tick(context.Background())

	if got := env.tracker.Status().Date; got != "2024-01-15" {
		t.Errorf("Date = %q, want unchanged 2024-01-15", got)
	}
}

func TestResetStats(t *testing.T) {
	env := newTestEnv(t, Config{}, seedToday(storage.DailyStats{"youtube.com": 3600}, nil))
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://youtube.com/")
	env.clock.Advance(10 * time.Second)

	if err := env.tracker.ResetStats(ctx); err != nil {
		t.Fatalf("ResetStats() error = %v", err)
	}
	if got := env.storedStats(t); len(got) != 0 {
		t.Errorf("expected empty stats, got %v", got)
	}

	env.clock.Advance(5 * time.Second)
	_ = env.tracker.FocusLost(ctx)

	if got := env.storedStats(t)["youtube.com"]; got != 5 {
		t.Errorf("youtube.com = %d, want 5", got)
	}
}

func TestLimitNotificationSurvivesRestart(t *testing.T) {
	env := newTestEnv(t, Config{}, seedToday(storage.DailyStats{"youtube.com": 3590}, nil))
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://youtube.com/")
	env.clock.Advance(10 * time.Second)
	_ = env.tracker.FocusLost(ctx)
	if env.notifier.count() != 1 {
		t.Fatalf("got %d notifications, want 1", env.notifier.count())
	}

	notifier := &recordingNotifier{}
	restarted := New(sites.Default(), env.store, notifier, env.clock, Config{}, zerolog.Nop())
	if err := restarted.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_ = restarted.Navigate(ctx, "https://youtube.com/")
	env.clock.Advance(time.Minute)
	_ = restarted.FocusLost(ctx)
	if notifier.count() != 0 {
		t.Errorf("restarted tracker notified %d times on the same day", notifier.count())
	}

	if err := restarted.ResetStats(ctx); err != nil {
		t.Fatalf("ResetStats() error = %v", err)
	}
	notified, _ := env.store.GetNotified(ctx)
	if len(notified) != 0 {
		t.Errorf("notified after reset = %v", notified)
	}
}

func TestStatusJSONOmitsIdleStart(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	data, err := json.Marshal(env.tracker.Status())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "started_at") {
		t.Errorf("idle status contains started_at: %s", data)
	}

	_ = env.tracker.Navigate(context.Background(), "https://youtube.com/")
	data, _ = json.Marshal(env.tracker.Status())
	if !strings.Contains(string(data), `"started_at"`) {
		t.Errorf("tracking status lacks started_at: %s", data)
	}
}

type failingStore struct {
	storage.StatsStore
}

func (failingStore) SetTodayStats(context.Context, storage.DailyStats) error {
	return errors.New("disk full")
}

func TestFlushPersistFailureStillTransitions(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	env.tracker.store = failingStore{StatsStore: env.store}
	ctx := context.Background()

	_ = env.tracker.Navigate(ctx, "https://youtube.com/")
	env.clock.Advance(time.Second)

	if err := env.tracker.FocusLost(ctx); err == nil {
		t.Error("expected persist error")
	}
	if env.tracker.Session().Active() {
		t.Error("expected Idle after failed flush")
	}
	if got := env.tracker.Status().Stats["youtube.com"]; got != 1 {
		t.Errorf("in-memory youtube.com = %d, want 1", got)
	}
}
