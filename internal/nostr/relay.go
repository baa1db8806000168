package nostr

import (
	"context"
	"errors"
	"fmt"

	gonostr "github.com/nbd-wtf/go-nostr"
	"go.uber.org/zap"
)

var (
	// ErrSubscriptionClosed is returned when the relay answers a REQ with CLOSED.
	ErrSubscriptionClosed = errors.New("subscription closed by relay")
	// ErrIncomplete is returned when a query ends before the relay sent EOSE.
	// The events received so far come back alongside it.
	ErrIncomplete = errors.New("relay query ended before end of stored events")
	// ErrRejected is returned when the relay refuses a published event.
	ErrRejected = errors.New("event rejected by relay")
)

// Relay talks to a single relay. Each operation opens its own connection.
type Relay struct {
	URL    string
	logger *zap.Logger
}

// NewRelay returns a client for url.
func NewRelay(url string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{URL: url, logger: logger.With(zap.String("relay", url))}
}

func (r *Relay) connect(ctx context.Context) (*gonostr.Relay, error) {
	conn, err := gonostr.RelayConnect(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", r.URL, err)
	}
	return conn, nil
}

// Query collects the events matching filter until EOSE. Events that fail
// verification or do not match the filter are dropped. If the query ends
// before EOSE the events received so far are returned with ErrIncomplete.
func (r *Relay) Query(ctx context.Context, filter Filter) ([]*Event, error) {
	conn, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	sub, err := conn.Subscribe(ctx, gonostr.Filters{filter})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", r.URL, err)
	}
	defer sub.Unsub()

	var events []*Event
	keep := func(ev *Event) {
		if err := Verify(ev); err != nil {
			r.logger.Debug("dropping unverified event", zap.String("event_id", ev.ID), zap.Error(err))
			return
		}
		if filter.Matches(ev) {
			events = append(events, ev)
		}
	}

	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return events, r.incomplete(ctx)
			}
			keep(ev)
		case <-sub.EndOfStoredEvents:
			for {
				select {
				case ev, ok := <-sub.Events:
					if !ok {
						return events, nil
					}
					keep(ev)
				default:
					return events, nil
				}
			}
		case reason := <-sub.ClosedReason:
			return events, fmt.Errorf("%w: %s", ErrSubscriptionClosed, reason)
		case <-ctx.Done():
			return events, r.incomplete(ctx)
		}
	}
}

func (r *Relay) incomplete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", r.URL, ErrIncomplete, err)
	}
	return fmt.Errorf("%s: %w: connection closed", r.URL, ErrIncomplete)
}

// Publish sends ev and waits for the relay's OK.
func (r *Relay) Publish(ctx context.Context, ev *Event) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Publish(ctx, *ev); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("publish %s: %w", r.URL, ctx.Err())
		}
		return fmt.Errorf("%w: %s: %v", ErrRejected, r.URL, err)
	}
	return nil
}
