package nostr

import (
	"errors"
	"fmt"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// NIP-19 prefixes.
const (
	PrefixNpub     = "npub"
	PrefixNsec     = "nsec"
	PrefixNote     = "note"
	PrefixNevent   = "nevent"
	PrefixNprofile = "nprofile"
)

var ErrInvalidBech32 = errors.New("invalid nip19 identifier")

// Pointer is the decoded form of a NIP-19 identifier.
type Pointer struct {
	Type   string   `json:"type"`
	Hex    string   `json:"hex"`
	Author string   `json:"author,omitempty"`
	Relays []string `json:"relays,omitempty"`
	Kind   int      `json:"kind,omitempty"`
}

// EncodePublicKey returns the npub for a hex public key.
func EncodePublicKey(pubkey string) (string, error) {
	if !gonostr.IsValid32ByteHex(pubkey) {
		return "", ErrInvalidKey
	}
	return nip19.EncodePublicKey(pubkey)
}

// EncodeSecretKey returns the nsec for a hex secret key.
func EncodeSecretKey(secret string) (string, error) {
	if !gonostr.IsValid32ByteHex(secret) {
		return "", ErrInvalidKey
	}
	return nip19.EncodePrivateKey(secret)
}

// EncodeNote returns the note1 id for a hex event id.
func EncodeNote(id string) (string, error) {
	if !gonostr.IsValid32ByteHex(id) {
		return "", ErrInvalidKey
	}
	return nip19.EncodeNote(id)
}

// EncodeEvent returns an nevent with the event id and optional relays and author.
func EncodeEvent(id string, relays []string, author string) (string, error) {
	if !gonostr.IsValid32ByteHex(id) || (author != "" && !gonostr.IsValid32ByteHex(author)) {
		return "", ErrInvalidKey
	}
	return nip19.EncodeEvent(id, relays, author)
}

// EncodeProfile returns an nprofile for a hex public key and optional relays.
func EncodeProfile(pubkey string, relays []string) (string, error) {
	if !gonostr.IsValid32ByteHex(pubkey) {
		return "", ErrInvalidKey
	}
	return nip19.EncodeProfile(pubkey, relays)
}

// Decode parses an npub, nsec, note, nevent or nprofile.
func Decode(s string) (Pointer, error) {
	prefix, value, err := nip19.Decode(s)
	if err != nil {
		return Pointer{}, fmt.Errorf("%w: %v", ErrInvalidBech32, err)
	}

	var p Pointer
	switch v := value.(type) {
	case string:
		p = Pointer{Type: prefix, Hex: v}
	case gonostr.EventPointer:
		p = Pointer{Type: prefix, Hex: v.ID, Author: v.Author, Relays: v.Relays, Kind: v.Kind}
	case *gonostr.EventPointer:
		p = Pointer{Type: prefix, Hex: v.ID, Author: v.Author, Relays: v.Relays, Kind: v.Kind}
	case gonostr.ProfilePointer:
		p = Pointer{Type: prefix, Hex: v.PublicKey, Relays: v.Relays}
	case *gonostr.ProfilePointer:
		p = Pointer{Type: prefix, Hex: v.PublicKey, Relays: v.Relays}
	default:
		return Pointer{}, fmt.Errorf("%w: unsupported prefix %q", ErrInvalidBech32, prefix)
	}

	switch p.Type {
	case PrefixNpub, PrefixNsec, PrefixNote, PrefixNevent, PrefixNprofile:
	default:
		return Pointer{}, fmt.Errorf("%w: unsupported prefix %q", ErrInvalidBech32, p.Type)
	}
	if !gonostr.IsValid32ByteHex(p.Hex) {
		return Pointer{}, fmt.Errorf("%w: %s payload must be 32 bytes", ErrInvalidBech32, p.Type)
	}
	return p, nil
}
