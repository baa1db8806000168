package nostr

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoRelays is returned when an operation is given no relay URLs.
var ErrNoRelays = errors.New("no relays configured")

const maxParallelRelays = 8

// Pool fans queries and publishes out over several relays.
type Pool struct {
	logger *zap.Logger
}

// NewPool returns a pool that logs through logger.
func NewPool(logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{logger: logger}
}

// Query runs filter against every relay and merges the results, deduplicated
// by id and sorted newest first. It succeeds when at least one relay reached
// EOSE. When none did, whatever was received is returned with the joined
// relay errors, which wrap ErrIncomplete if a relay was cut short.
func (p *Pool) Query(ctx context.Context, urls []string, filter Filter) ([]*Event, error) {
	if len(urls) == 0 {
		return nil, ErrNoRelays
	}

	var (
		mu       sync.Mutex
		seen     = make(map[string]*Event)
		complete int
		errs     []error
	)
	var g errgroup.Group
	g.SetLimit(maxParallelRelays)
	for _, url := range urls {
		g.Go(func() error {
			events, err := NewRelay(url, p.logger).Query(ctx, filter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("relay query failed", zap.String("relay", url), zap.Int("received", len(events)), zap.Error(err))
				errs = append(errs, err)
			} else {
				complete++
			}
			for _, ev := range events {
				seen[ev.ID] = ev
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Event, 0, len(seen))
	for _, ev := range seen {
		out = append(out, ev)
	}
	SortNewestFirst(out)

	if complete == 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// Publish sends ev to every relay. It succeeds if at least one relay accepted it.
func (p *Pool) Publish(ctx context.Context, urls []string, ev *Event) error {
	if len(urls) == 0 {
		return ErrNoRelays
	}

	var (
		mu       sync.Mutex
		accepted int
		errs     []error
	)
	var g errgroup.Group
	g.SetLimit(maxParallelRelays)
	for _, url := range urls {
		g.Go(func() error {
			err := NewRelay(url, p.logger).Publish(ctx, ev)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("relay publish failed", zap.String("relay", url), zap.String("event_id", ev.ID), zap.Error(err))
				errs = append(errs, err)
				return nil
			}
			accepted++
			return nil
		})
	}
	_ = g.Wait()

	if accepted == 0 {
		return errors.Join(errs...)
	}
	return nil
}
