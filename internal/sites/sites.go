// Package sites provides the WordPress site registry: a read-only lookup
// table of site credentials and endpoints loaded once at startup from a
// YAML file.
package sites

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site describes one configured WordPress site. Immutable after Load.
type Site struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// APIURL is the REST API base, derived from URL at load time.
	APIURL string `yaml:"-"`
}

// Registry holds all configured sites, keyed by id. Safe for concurrent
// reads; never mutated after Load.
type Registry struct {
	byID  map[string]Site
	order []string // ids in file order, for stable listings
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// Load parses the sites YAML file. It fails fast on a missing or malformed
// file, or on duplicate/incomplete site entries. Called once at startup.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sites: read %s: %w", path, err)
	}

	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("sites: parse %s: %w", path, err)
	}
	if len(file.Sites) == 0 {
		return nil, fmt.Errorf("sites: %s defines no sites", path)
	}

	r := &Registry{byID: make(map[string]Site, len(file.Sites))}
	for _, s := range file.Sites {
		if s.ID == "" || s.URL == "" || s.Username == "" || s.Password == "" {
			return nil, fmt.Errorf("sites: site %q is missing id, url, username, or password", s.ID)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("sites: duplicate site id %q", s.ID)
		}
		s.APIURL = strings.TrimRight(s.URL, "/") + "/wp-json/wp/v2"
		r.byID[s.ID] = s
		r.order = append(r.order, s.ID)
	}

	return r, nil
}

// Lookup returns the site with the given id. The boolean reports whether
// the id is known; an unknown id is a recoverable condition for callers.
func (r *Registry) Lookup(id string) (Site, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// List returns all sites in configuration-file order.
func (r *Registry) List() []Site {
	out := make([]Site, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of configured sites.
func (r *Registry) Len() int {
	return len(r.byID)
}
