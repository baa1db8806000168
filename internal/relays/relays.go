// Package relays normalizes relay URLs and tracks which relay notes are read from.
package relays

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/harrylevesque/revisitor/internal/models"
)

// DefaultPresets are offered when configuration lists none.
var DefaultPresets = []models.RelayPreset{
	{Name: "Ditto", URL: "wss://ditto.pub/relay"},
	{Name: "Nostr.Band", URL: "wss://relay.nostr.band"},
	{Name: "Damus", URL: "wss://relay.damus.io"},
	{Name: "Primal", URL: "wss://relay.primal.net"},
}

var schemeRE = regexp.MustCompile(`^wss?://`)

// Normalize trims url and prepends wss:// when it has no scheme.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, "://") {
		return trimmed
	}
	return "wss://" + trimmed
}

// IsValidInput reports whether v normalizes to a URL with a host.
func IsValidInput(v string) bool {
	n := Normalize(v)
	if n == "" {
		return false
	}
	u, err := url.Parse(n)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// FilterPresets returns the presets whose name or url contains query,
// ignoring case. An empty query returns every preset.
func FilterPresets(presets []models.RelayPreset, query string) []models.RelayPreset {
	q := strings.ToLower(query)
	out := make([]models.RelayPreset, 0, len(presets))
	for _, p := range presets {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.URL), q) {
			out = append(out, p)
		}
	}
	return out
}

// DisplayName returns the preset name for url, or url without its ws(s) scheme.
func DisplayName(presets []models.RelayPreset, u string) string {
	for _, p := range presets {
		if p.URL == u {
			return p.Name
		}
	}
	return schemeRE.ReplaceAllString(u, "")
}

// Selection is the relay notes are searched on: a user pick, or the default.
type Selection struct {
	mu       sync.RWMutex
	def      string
	selected string
}

func NewSelection(defaultRelay string) *Selection {
	return &Selection{def: defaultRelay}
}

func (s *Selection) Default() string {
	return s.def
}

// Select normalizes and stores u. An empty u resets to the default.
func (s *Selection) Select(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = Normalize(u)
}

func (s *Selection) Reset() {
	s.Select("")
}

// Effective returns the selected relay, falling back to the default.
func (s *Selection) Effective() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected != "" {
		return s.selected
	}
	return s.def
}

// IsCustom reports whether a relay other than the default is selected.
func (s *Selection) IsCustom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected != "" && s.selected != s.def
}

// Candidate is one entry of a relay search result.
type Candidate struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	IsDefault bool   `json:"is_default"`
	Selected  bool   `json:"selected"`
	Custom    bool   `json:"custom"`
}

// Search lists presets matching query and, when query itself is a usable
// relay address, a custom candidate for it.
func (s *Selection) Search(presets []models.RelayPreset, query string) []Candidate {
	eff := s.Effective()
	var out []Candidate
	for _, p := range FilterPresets(presets, query) {
		out = append(out, Candidate{
			Name:      p.Name,
			URL:       p.URL,
			IsDefault: p.URL == s.def,
			Selected:  p.URL == eff,
		})
	}
	if query != "" && IsValidInput(query) {
		u := Normalize(query)
		out = append(out, Candidate{Name: "Use custom relay", URL: u, Custom: true, Selected: u == eff})
	}
	return out
}
