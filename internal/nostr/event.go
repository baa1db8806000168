// Package nostr adapts github.com/nbd-wtf/go-nostr to the few operations the
// app needs: signing, NIP-19 identifiers and one-shot relay round trips.
package nostr

import (
	"errors"
	"fmt"
	"sort"

	gonostr "github.com/nbd-wtf/go-nostr"
)

// Event kinds used by the app.
const (
	KindProfile     = gonostr.KindProfileMetadata
	KindTextNote    = gonostr.KindTextNote
	KindEncryptedDM = gonostr.KindEncryptedDirectMessage
	KindRepost      = gonostr.KindRepost
)

type (
	Event     = gonostr.Event
	Tag       = gonostr.Tag
	Tags      = gonostr.Tags
	Filter    = gonostr.Filter
	Timestamp = gonostr.Timestamp
)

var (
	ErrInvalidID        = errors.New("event id does not match content")
	ErrInvalidSignature = errors.New("invalid event signature")
)

// Verify checks the event id and BIP-340 signature.
func Verify(ev *Event) error {
	if ev.GetID() != ev.ID {
		return ErrInvalidID
	}
	ok, err := ev.CheckSignature()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// TagValue returns the first value of the first tag named name.
func TagValue(ev *Event, name string) (string, bool) {
	for _, t := range ev.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1], true
		}
	}
	return "", false
}

// SortNewestFirst orders events by created_at descending, ties broken by id.
func SortNewestFirst(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID < events[j].ID
	})
}
