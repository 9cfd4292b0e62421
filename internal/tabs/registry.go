// Package tabs remembers the last known URL of each browser tab so events
// that carry only a tab id can be resolved.
package tabs

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// NoTab is the zero tab id; browsers never assign it.
const NoTab = 0

// Registry maps tab ids to URLs and remembers the active tab. The cache is
// bounded so long-lived browser sessions cannot grow it without limit.
type Registry struct {
	urls   *lru.Cache[int, string]
	mu     sync.RWMutex
	active int
}

// NewRegistry creates a registry holding at most size tabs.
func NewRegistry(size int) (*Registry, error) {
	cache, err := lru.New[int, string](size)
	if err != nil {
		return nil, fmt.Errorf("create tab cache: %w", err)
	}
	return &Registry{urls: cache}, nil
}

// SetURL records the current URL of a tab.
func (r *Registry) SetURL(tabID int, url string) {
	r.urls.Add(tabID, url)
}

// URL returns the last known URL of a tab.
func (r *Registry) URL(tabID int) (string, bool) {
	return r.urls.Get(tabID)
}

// Activate marks a tab as the foreground tab.
func (r *Registry) Activate(tabID int) {
	r.mu.Lock()
	r.active = tabID
	r.mu.Unlock()
}

// Active returns the foreground tab id, or NoTab.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// IsActive reports whether tabID is the foreground tab. With no known
// foreground tab every tab counts as active.
func (r *Registry) IsActive(tabID int) bool {
	active := r.Active()
	return active == NoTab || active == tabID
}

// Remove forgets a tab. It reports whether it was the foreground tab.
func (r *Registry) Remove(tabID int) bool {
	r.urls.Remove(tabID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == tabID {
		r.active = NoTab
		return true
	}
	return false
}

// Len returns the number of remembered tabs.
func (r *Registry) Len() int {
	return r.urls.Len()
}
