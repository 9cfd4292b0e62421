// Package sites holds the fixed table of tracked sites and classifies URLs
// against it.
package sites

import (
	"net/url"
	"strings"

	"github.com/goodtune/snstimer/internal/config"
)

// Site is one tracked social-media site.
type Site struct {
	Key          string `json:"domain"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	DefaultLimit int    `json:"default_limit"`
}

// Catalog is an immutable, ordered set of tracked sites.
type Catalog struct {
	sites []Site
	byKey map[string]Site
}

// NewCatalog builds a catalog. Keys are lowercased; later duplicates are ignored.
func NewCatalog(sites []Site) *Catalog {
	c := &Catalog{
		sites: make([]Site, 0, len(sites)),
		byKey: make(map[string]Site, len(sites)),
	}
	for _, s := range sites {
		s.Key = strings.ToLower(strings.TrimSpace(s.Key))
		if s.Key == "" {
			continue
		}
		if _, dup := c.byKey[s.Key]; dup {
			continue
		}
		c.sites = append(c.sites, s)
		c.byKey[s.Key] = s
	}
	return c
}

// FromConfig builds a catalog from the configured site list.
func FromConfig(cfgSites []config.SiteConfig) *Catalog {
	list := make([]Site, 0, len(cfgSites))
	for _, s := range cfgSites {
		list = append(list, Site{
			Key:          s.Domain,
			Name:         s.Name,
			Icon:         s.Icon,
			DefaultLimit: s.DefaultLimit,
		})
	}
	return NewCatalog(list)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return FromConfig(config.DefaultSites)
}

// All returns the sites in configuration order.
func (c *Catalog) All() []Site {
	out := make([]Site, len(c.sites))
	copy(out, c.sites)
	return out
}

// Lookup returns the site registered under key.
func (c *Catalog) Lookup(key string) (Site, bool) {
	s, ok := c.byKey[key]
	return s, ok
}

// Classify returns the key of the site rawURL belongs to. Unparseable URLs
// and URLs without a host never match.
func (c *Catalog) Classify(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	return c.ClassifyHost(u.Hostname())
}

// ClassifyHost matches a bare hostname. A key k matches k itself, "www."+k,
// and any subdomain ending in "."+k.
func (c *Catalog) ClassifyHost(host string) (string, bool) {
	host = strings.ToLower(host)
	if host == "" {
		return "", false
	}
	for _, s := range c.sites {
		if MatchHost(host, s.Key) {
			return s.Key, true
		}
	}
	return "", false
}

// MatchHost reports whether host belongs to key on a dot boundary.
func MatchHost(host, key string) bool {
	return host == key || host == "www."+key || strings.HasSuffix(host, "."+key)
}
