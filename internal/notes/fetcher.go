// Package notes reads the user's notes from relays and publishes boosts.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

const (
	// QueryLimit caps how many notes are requested per fetch.
	QueryLimit     = 500
	monthWindow    = 30 * 24 * time.Hour
	defaultTimeout = 5 * time.Second
	defaultTTL     = 5 * time.Minute
)

var ErrNoteNotFound = errors.New("note not found")

// Client is the relay access the package needs. *nostr.Pool satisfies it.
type Client interface {
	Query(ctx context.Context, urls []string, filter nostr.Filter) ([]*nostr.Event, error)
	Publish(ctx context.Context, urls []string, ev *nostr.Event) error
}

type cacheKey struct {
	pubkey string
	rng    models.TimeRange
	relay  string
}

type cacheEntry struct {
	notes     []*nostr.Event
	fetchedAt time.Time
}

// Fetcher loads a user's kind 1 notes and caches them for a short while.
type Fetcher struct {
	client  Client
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type FetcherOption func(*Fetcher)

func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithTTL sets how long results stay fresh. Zero disables caching.
func WithTTL(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.ttl = d }
}

func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(client Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		timeout: defaultTimeout,
		ttl:     defaultTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		cache:   map[cacheKey]cacheEntry{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter builds the relay filter for a user's notes over rng.
func Filter(pubkey string, rng models.TimeRange, now time.Time) nostr.Filter {
	f := nostr.Filter{
		Kinds:   []int{nostr.KindTextNote},
		Authors: []string{pubkey},
		Limit:   QueryLimit,
	}
	if rng != models.RangeAllTime {
		since := nostr.Timestamp(now.Add(-monthWindow).Unix())
		f.Since = &since
	}
	return f
}

// MyNotes returns pubkey's notes on relay, newest first. A query that ends
// before the relay finished sending stored events fails with
// nostr.ErrIncomplete and nothing is cached.
func (f *Fetcher) MyNotes(ctx context.Context, pubkey string, rng models.TimeRange, relay string) ([]*nostr.Event, error) {
	if pubkey == "" {
		return nil, auth.ErrNotLoggedIn
	}
	key := cacheKey{pubkey: pubkey, rng: rng, relay: relay}
	now := f.now()

	f.mu.Lock()
	if e, ok := f.cache[key]; ok && f.ttl > 0 && now.Sub(e.fetchedAt) < f.ttl {
		f.mu.Unlock()
		return append([]*nostr.Event(nil), e.notes...), nil
	}
	f.mu.Unlock()

	qctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	events, err := f.client.Query(qctx, []string{relay}, Filter(pubkey, rng, now))
	if err != nil {
		f.logger.Warn("note query failed",
			zap.String("relay", relay),
			zap.String("range", string(rng)),
			zap.Int("received", len(events)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("query notes on %s: %w", relay, err)
	}
	notes := make([]*nostr.Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == nostr.KindTextNote && ev.PubKey == pubkey {
			notes = append(notes, ev)
		}
	}
	nostr.SortNewestFirst(notes)
	f.logger.Debug("fetched notes", zap.String("relay", relay), zap.Int("count", len(notes)))

	f.mu.Lock()
	f.cache[key] = cacheEntry{notes: notes, fetchedAt: now}
	f.mu.Unlock()
	return append([]*nostr.Event(nil), notes...), nil
}

// Find returns one of pubkey's notes by id.
func (f *Fetcher) Find(ctx context.Context, pubkey string, rng models.TimeRange, relay, id string) (*nostr.Event, error) {
	notes, err := f.MyNotes(ctx, pubkey, rng, relay)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNoteNotFound)
}

// Invalidate drops every cached result for pubkey.
func (f *Fetcher) Invalidate(pubkey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.cache {
		if k.pubkey == pubkey {
			delete(f.cache, k)
		}
	}
}
