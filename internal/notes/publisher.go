package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

var ErrEmptyComment = errors.New("Please add a comment for your quoted boost.")

// Publisher signs boosts as the configured identity and sends them to relays.
type Publisher struct {
	client Client
	id     *auth.Identity
	logger *zap.Logger
}

func NewPublisher(client Client, id *auth.Identity, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, id: id, logger: logger}
}

// Nevent returns the nevent reference for note, carrying its author.
func Nevent(note *nostr.Event) (string, error) {
	return nostr.EncodeEvent(note.ID, nil, note.PubKey)
}

// BoostEvent builds an unsigned repost of note.
func BoostEvent(note *nostr.Event) *nostr.Event {
	return &nostr.Event{
		Kind:    nostr.KindRepost,
		Content: "",
		Tags: nostr.Tags{
			{"e", note.ID},
			{"p", note.PubKey},
		},
	}
}

// QuoteEvent builds an unsigned quoted boost of note.
func QuoteEvent(note *nostr.Event, comment string) (*nostr.Event, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}
	ref, err := Nevent(note)
	if err != nil {
		return nil, fmt.Errorf("encode nevent: %w", err)
	}
	return &nostr.Event{
		Kind:    nostr.KindTextNote,
		Content: comment + "\n\nnostr:" + ref,
		Tags: nostr.Tags{
			{"e", note.ID, "", "mention"},
			{"p", note.PubKey},
			{"q", note.ID},
		},
	}, nil
}

// Boost reposts note to relays.
func (p *Publisher) Boost(ctx context.Context, relays []string, note *nostr.Event) (*nostr.Event, error) {
	return p.publish(ctx, relays, BoostEvent(note))
}

// QuoteBoost publishes comment quoting note to relays.
func (p *Publisher) QuoteBoost(ctx context.Context, relays []string, note *nostr.Event, comment string) (*nostr.Event, error) {
	ev, err := QuoteEvent(note, comment)
	if err != nil {
		return nil, err
	}
	return p.publish(ctx, relays, ev)
}

// Publish signs ev and sends it, for callers that build their own events.
func (p *Publisher) Publish(ctx context.Context, relays []string, ev *nostr.Event) (*nostr.Event, error) {
	return p.publish(ctx, relays, ev)
}

func (p *Publisher) publish(ctx context.Context, relays []string, ev *nostr.Event) (*nostr.Event, error) {
	if err := p.id.Sign(ev); err != nil {
		return nil, err
	}
	if err := p.client.Publish(ctx, relays, ev); err != nil {
		p.logger.Warn("publish failed", zap.Int("kind", ev.Kind), zap.String("event_id", ev.ID), zap.Error(err))
		return nil, fmt.Errorf("publish kind %d: %w", ev.Kind, err)
	}
	p.logger.Info("published", zap.Int("kind", ev.Kind), zap.String("event_id", ev.ID))
	return ev, nil
}
