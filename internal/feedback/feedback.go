// Package feedback sends encrypted app feedback as a direct message.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/crypto"
	"github.com/harrylevesque/revisitor/internal/files"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/notes"
)

const (
	DefaultRecipient = "npub17dmmwz9dcs6rehfwvr4yd35r7fg8na6hu5fqfnhrs80q7etjveyq24tduz"
	MaxImprovements  = 500
	// SessionFlag marks the session once feedback was sent or dismissed.
	SessionFlag = "feedback-submitted"
	// ShowDelay is how long after start the popup is offered.
	ShowDelay = 30 * time.Second
	Subject   = "App Feedback"
)

var (
	ErrInvalidRating       = errors.New("Please select a star rating before submitting.")
	ErrImprovementsTooLong = fmt.Errorf("suggestions are limited to %d characters", MaxImprovements)
	ErrInvalidRecipient    = errors.New("Invalid feedback recipient npub")
	ErrAlreadySubmitted    = errors.New("feedback already submitted this session")
)

type Request struct {
	Rating       int    `json:"rating"`
	Improvements string `json:"improvements"`
	Recipient    string `json:"recipient,omitempty"`
	URL          string `json:"url,omitempty"`
}

// State is what the popup needs to know.
type State struct {
	Open         bool `json:"open"`
	HasSubmitted bool `json:"has_submitted"`
}

type Service struct {
	id        *auth.Identity
	publisher *notes.Publisher
	session   *files.SessionStore
	recipient string
	appURL    string
	started   time.Time
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds the feedback sender. recipient may be empty to use
// DefaultRecipient.
func NewService(id *auth.Identity, publisher *notes.Publisher, session *files.SessionStore, recipient, appURL string, opts ...Option) *Service {
	s := &Service{
		id:        id,
		publisher: publisher,
		session:   session,
		recipient: recipient,
		appURL:    appURL,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// ResolveRecipient picks the request value, then the configured one, then the
// default, and decodes it to a hex pubkey.
func ResolveRecipient(requested, configured string) (string, error) {
	npub := DefaultRecipient
	switch {
	case strings.TrimSpace(requested) != "":
		npub = strings.TrimSpace(requested)
	case strings.TrimSpace(configured) != "":
		npub = strings.TrimSpace(configured)
	}
	p, err := nostr.Decode(npub)
	if err != nil || p.Type != nostr.PrefixNpub {
		return "", ErrInvalidRecipient
	}
	return p.Hex, nil
}

// Message formats the plaintext body.
func Message(rating int, improvements string, submitted time.Time, url string) string {
	if improvements == "" {
		improvements = "No suggestions provided"
	}
	var b strings.Builder
	b.WriteString("App Feedback:\n\n")
	fmt.Fprintf(&b, "Rating: %d/5 stars\n\n", rating)
	b.WriteString("What could be improved:\n")
	b.WriteString(improvements)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Submitted: %s\n", submitted.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "URL: %s", url)
	return b.String()
}

// Validate checks req and returns the trimmed suggestions.
func Validate(req Request) (string, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return "", ErrInvalidRating
	}
	improvements := strings.TrimSpace(req.Improvements)
	if utf8.RuneCountInString(improvements) > MaxImprovements {
		return "", ErrImprovementsTooLong
	}
	return improvements, nil
}

// Submit encrypts the feedback to the recipient and publishes it as a kind 4
// direct message.
func (s *Service) Submit(ctx context.Context, relays []string, req Request) (*nostr.Event, error) {
	if !s.id.LoggedIn() {
		return nil, auth.ErrNotLoggedIn
	}
	if !s.id.CanSign() {
		return nil, auth.ErrReadOnly
	}
	if s.session.Flag(SessionFlag) {
		return nil, ErrAlreadySubmitted
	}
	improvements, err := Validate(req)
	if err != nil {
		return nil, err
	}
	recipient, err := ResolveRecipient(req.Recipient, s.recipient)
	if err != nil {
		return nil, err
	}

	url := req.URL
	if url == "" {
		url = s.appURL
	}
	body := Message(req.Rating, improvements, s.now(), url)

	key, err := crypto.ConversationKey(s.id.SecretKey, recipient)
	if err != nil {
		return nil, fmt.Errorf("conversation key: %w", err)
	}
	payload, err := crypto.Encrypt(key, body)
	if err != nil {
		return nil, fmt.Errorf("encrypt feedback: %w", err)
	}

	ev := &nostr.Event{
		Kind:    nostr.KindEncryptedDM,
		Content: payload,
		Tags: nostr.Tags{
			{"p", recipient},
			{"subject", Subject},
		},
	}
	sent, err := s.publisher.Publish(ctx, relays, ev)
	if err != nil {
		return nil, err
	}
	s.session.SetFlag(SessionFlag)
	s.logger.Info("feedback sent", zap.String("event_id", sent.ID), zap.Int("rating", req.Rating))
	return sent, nil
}

// Dismiss hides the popup for the rest of the session.
func (s *Service) Dismiss() {
	s.session.SetFlag(SessionFlag)
}

func (s *Service) State() State {
	submitted := s.session.Flag(SessionFlag)
	return State{
		Open:         !submitted && s.id.LoggedIn() && s.now().Sub(s.started) >= ShowDelay,
		HasSubmitted: submitted,
	}
}
