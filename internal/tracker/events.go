package tracker

import (
	"context"
	"fmt"

	"github.com/goodtune/snstimer/internal/metrics"
	"github.com/goodtune/snstimer/internal/tabs"
)

// Event is a browser notification fed to the tracker.
type Event interface {
	eventType() string
}

// TabActivated reports that a tab became the foreground tab. URL may be
// empty when the browser did not include it.
type TabActivated struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url,omitempty"`
}

// TabUpdated reports a tab's URL changing.
type TabUpdated struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

// FocusChanged reports the browser window gaining or losing focus.
type FocusChanged struct {
	Focused bool `json:"focused"`
}

// TabRemoved reports a tab closing.
type TabRemoved struct {
	TabID int `json:"tabId"`
}

func (TabActivated) eventType() string { return "activated" }
func (TabUpdated) eventType() string { return "updated" }
func (FocusChanged) eventType() string { return "focus" }
func (TabRemoved) eventType() string { return "removed" }

// Apply translates a browser event into tracker transitions, keeping the
// tab registry current.
func Apply(ctx context.Context, t *Tracker, registry *tabs.Registry, ev Event) error {
	metrics.EventsTotal.WithLabelValues(ev.eventType()).Inc()

	switch e := ev.(type) {
	case TabActivated:
		registry.Activate(e.TabID)
		url := e.URL
		if url != "" {
			registry.SetURL(e.TabID, url)
		} else {
			url, _ = registry.URL(e.TabID)
		}
		return t.Navigate(ctx, url)

	case TabUpdated:
		if e.URL == "" {
			return nil
		}
		registry.SetURL(e.TabID, e.URL)
		if !registry.IsActive(e.TabID) {
			return nil
		}
		registry.Activate(e.TabID)
		return t.Navigate(ctx, e.URL)

	case FocusChanged:
		if !e.Focused {
			return t.FocusLost(ctx)
		}
		active := registry.Active()
		if active == tabs.NoTab {
			return nil
		}
		url, ok := registry.URL(active)
		if !ok {
			return nil
		}
		return t.Navigate(ctx, url)

	case TabRemoved:
		wasActive := registry.Remove(e.TabID)
		if !wasActive {
			return nil
		}
		return t.TabClosed(ctx)

	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}
