package nostr

import (
	"errors"

	gonostr "github.com/nbd-wtf/go-nostr"
)

// ErrInvalidKey is returned for malformed hex keys.
var ErrInvalidKey = errors.New("invalid key")

// GeneratePrivateKey returns a new random secret key as hex.
func GeneratePrivateKey() (string, error) {
	sk := gonostr.GeneratePrivateKey()
	if sk == "" {
		return "", errors.New("generate key: no entropy")
	}
	return sk, nil
}

// PublicKey returns the x-only public key for a hex secret key.
func PublicKey(secretKey string) (string, error) {
	if !gonostr.IsValid32ByteHex(secretKey) {
		return "", ErrInvalidKey
	}
	pk, err := gonostr.GetPublicKey(secretKey)
	if err != nil {
		return "", ErrInvalidKey
	}
	return pk, nil
}

// IsValidPublicKey reports whether s is a 32-byte hex x-only key on the curve.
func IsValidPublicKey(s string) bool {
	return gonostr.IsValidPublicKey(s)
}

// Sign sets PubKey, ID and Sig on ev using the hex secret key.
func Sign(ev *Event, secretKey string) error {
	if !gonostr.IsValid32ByteHex(secretKey) {
		return ErrInvalidKey
	}
	if ev.Tags == nil {
		ev.Tags = Tags{}
	}
	if err := ev.Sign(secretKey); err != nil {
		return errors.Join(ErrInvalidKey, err)
	}
	return nil
}
