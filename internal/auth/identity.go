// Package auth holds the Nostr identity the service acts as.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrylevesque/revisitor/internal/nostr"
)

var (
	// ErrNotLoggedIn is returned when no public key is configured.
	ErrNotLoggedIn = errors.New("User not logged in")
	// ErrReadOnly is returned when signing is attempted without a secret key.
	ErrReadOnly = errors.New("no secret key configured; identity is read-only")
	// ErrKeyMismatch is returned when the configured npub does not belong to the nsec.
	ErrKeyMismatch = errors.New("public key does not match secret key")
)

// Identity is the user's Nostr key pair. SecretKey is empty for a read-only login.
type Identity struct {
	PubKey    string
	SecretKey string
}

// FromKeys builds an Identity from an nsec or hex secret key and/or an npub
// or hex public key. Both empty yields a logged-out identity.
func FromKeys(secret, public string) (*Identity, error) {
	secret = strings.TrimSpace(secret)
	public = strings.TrimSpace(public)
	id := &Identity{}

	if public != "" {
		pk, err := decodeKey(public, nostr.PrefixNpub)
		if err != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}
		if !nostr.IsValidPublicKey(pk) {
			return nil, fmt.Errorf("public key: %w", nostr.ErrInvalidKey)
		}
		id.PubKey = pk
	}

	if secret != "" {
		sk, err := decodeKey(secret, nostr.PrefixNsec)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		pk, err := nostr.PublicKey(sk)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		if id.PubKey != "" && id.PubKey != pk {
			return nil, ErrKeyMismatch
		}
		id.PubKey = pk
		id.SecretKey = sk
	}
	return id, nil
}

func decodeKey(s, prefix string) (string, error) {
	if !strings.HasPrefix(s, prefix+"1") {
		return strings.ToLower(s), nil
	}
	p, err := nostr.Decode(s)
	if err != nil {
		return "", err
	}
	if p.Type != prefix {
		return "", fmt.Errorf("expected %s, got %s", prefix, p.Type)
	}
	return p.Hex, nil
}

func (id *Identity) LoggedIn() bool {
	return id != nil && id.PubKey != ""
}

func (id *Identity) CanSign() bool {
	return id.LoggedIn() && id.SecretKey != ""
}

// NPub returns the bech32 public key, or "" when logged out.
func (id *Identity) NPub() string {
	if !id.LoggedIn() {
		return ""
	}
	s, err := nostr.EncodePublicKey(id.PubKey)
	if err != nil {
		return ""
	}
	return s
}

// Sign stamps created_at if unset and signs ev as this identity.
func (id *Identity) Sign(ev *nostr.Event) error {
	if !id.LoggedIn() {
		return ErrNotLoggedIn
	}
	if !id.CanSign() {
		return ErrReadOnly
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = nostr.Timestamp(time.Now().Unix())
	}
	return nostr.Sign(ev, id.SecretKey)
}
