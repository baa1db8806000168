package notes

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/content"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

// Profile is the subset of kind 0 metadata the app displays.
type Profile struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Picture     string `json:"picture,omitempty"`
	About       string `json:"about,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
}

// Profiles looks up kind 0 metadata and remembers what it found.
type Profiles struct {
	client  Client
	relays  []string
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	known map[string]Profile
}

func NewProfiles(client Client, relays []string, logger *zap.Logger) *Profiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiles{
		client:  client,
		relays:  relays,
		timeout: defaultTimeout,
		logger:  logger,
		known:   map[string]Profile{},
	}
}

// Load fetches metadata for any pubkeys not already cached. Lookup failures
// are logged and leave those pubkeys unresolved.
func (p *Profiles) Load(ctx context.Context, pubkeys ...string) {
	var missing []string
	p.mu.RLock()
	for _, pk := range pubkeys {
		if _, ok := p.known[pk]; !ok && pk != "" {
			missing = append(missing, pk)
		}
	}
	p.mu.RUnlock()
	if len(missing) == 0 {
		return
	}

	qctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	events, err := p.client.Query(qctx, p.relays, nostr.Filter{Kinds: []int{nostr.KindProfile}, Authors: missing})
	if err != nil {
		p.logger.Debug("profile lookup failed", zap.Int("pubkeys", len(missing)), zap.Error(err))
		return
	}

	// newest first, so the first event seen per author wins
	nostr.SortNewestFirst(events)
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := map[string]bool{}
	for _, ev := range events {
		if ev.Kind != nostr.KindProfile || seen[ev.PubKey] {
			continue
		}
		seen[ev.PubKey] = true
		var prof Profile
		if err := json.Unmarshal([]byte(ev.Content), &prof); err != nil {
			p.logger.Debug("bad profile metadata", zap.String("pubkey", ev.PubKey), zap.Error(err))
			continue
		}
		p.known[ev.PubKey] = prof
	}
}

// Get returns cached metadata for pubkey.
func (p *Profiles) Get(pubkey string) (Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prof, ok := p.known[pubkey]
	return prof, ok
}

// Name implements content.NameResolver.
func (p *Profiles) Name(pubkey string) (string, bool) {
	prof, ok := p.Get(pubkey)
	if !ok {
		return "", false
	}
	if prof.DisplayName != "" {
		return prof.DisplayName, true
	}
	return prof.Name, prof.Name != ""
}

// DisplayName returns the profile name or a generated one.
func (p *Profiles) DisplayName(pubkey string) string {
	return content.DisplayName(p, pubkey)
}
