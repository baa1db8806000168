package feedback

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/crypto"
	"github.com/harrylevesque/revisitor/internal/files"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/notes"
)

type capture struct {
	mu        sync.Mutex
	published []*nostr.Event
}

func (c *capture) Query(context.Context, []string, nostr.Filter) ([]*nostr.Event, error) {
	return nil, nil
}

func (c *capture) Publish(_ context.Context, _ []string, ev *nostr.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, ev)
	return nil
}

func keypair(t *testing.T) (*auth.Identity, string) {
	t.Helper()
	sk, err := nostr.GeneratePrivateKey()
	require.NoError(t, err)
	id, err := auth.FromKeys(sk, "")
	require.NoError(t, err)
	return id, sk
}

var start = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestMessage(t *testing.T) {
	got := Message(4, "", start, "https://app.example")
	want := "App Feedback:\n\nRating: 4/5 stars\n\nWhat could be improved:\nNo suggestions provided\n\nSubmitted: 2024-06-15T12:00:00.000Z\nURL: https://app.example"
	assert.Equal(t, want, got)

	assert.Contains(t, Message(2, "more colors", start, "u"), "What could be improved:\nmore colors\n\n")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    string
		wantErr error
	}{
		{"ok", Request{Rating: 5, Improvements: "  nice  "}, "nice", nil},
		{"zero rating", Request{Rating: 0}, "", ErrInvalidRating},
		{"rating too high", Request{Rating: 6}, "", ErrInvalidRating},
		{"at limit", Request{Rating: 1, Improvements: strings.Repeat("é", MaxImprovements)}, strings.Repeat("é", MaxImprovements), nil},
		{"too long", Request{Rating: 1, Improvements: strings.Repeat("x", MaxImprovements+1)}, "", ErrImprovementsTooLong},
		{"whitespace only", Request{Rating: 3, Improvements: " \n\t "}, "", nil},
		{"padding not counted", Request{Rating: 2, Improvements: "  " + strings.Repeat("x", MaxImprovements) + "  "}, strings.Repeat("x", MaxImprovements), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRecipient(t *testing.T) {
	def, err := nostr.Decode(DefaultRecipient)
	require.NoError(t, err)
	other, _ := keypair(t)

	got, err := ResolveRecipient("", "")
	require.NoError(t, err)
	assert.Equal(t, def.Hex, got)

	got, err = ResolveRecipient("", other.NPub())
	require.NoError(t, err)
	assert.Equal(t, other.PubKey, got)

	got, err = ResolveRecipient(other.NPub(), "garbage")
	require.NoError(t, err)
	assert.Equal(t, other.PubKey, got)

	_, err = ResolveRecipient("garbage", "")
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	nsec, err := nostr.EncodeSecretKey(strings.Repeat("01", 32))
	require.NoError(t, err)
	_, err = ResolveRecipient(nsec, "")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestSubmit(t *testing.T) {
	me, _ := keypair(t)
	recipient, recipientSK := keypair(t)
	c := &capture{}
	session := files.NewSessionStore()
	svc := NewService(me, notes.NewPublisher(c, me, nil), session, recipient.NPub(), "https://app.example",
		WithClock(func() time.Time { return start }))

	ev, err := svc.Submit(context.Background(), []string{"wss://r"}, Request{Rating: 3, Improvements: " faster loading "})
	require.NoError(t, err)
	require.Len(t, c.published, 1)
	assert.Equal(t, nostr.KindEncryptedDM, ev.Kind)
	assert.Equal(t, nostr.Tags{{"p", recipient.PubKey}, {"subject", Subject}}, ev.Tags)
	require.NoError(t, nostr.Verify(ev))

	key, err := crypto.ConversationKey(recipientSK, me.PubKey)
	require.NoError(t, err)
	plain, err := crypto.Decrypt(key, ev.Content)
	require.NoError(t, err)
	assert.Equal(t, Message(3, "faster loading", start, "https://app.example"), plain)

	assert.True(t, session.Flag(SessionFlag))
	assert.Equal(t, State{Open: false, HasSubmitted: true}, svc.State())

	_, err = svc.Submit(context.Background(), []string{"wss://r"}, Request{Rating: 3})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitRejections(t *testing.T) {
	me, _ := keypair(t)
	c := &capture{}

	_, err := NewService(&auth.Identity{}, notes.NewPublisher(c, &auth.Identity{}, nil), files.NewSessionStore(), "", "").
		Submit(context.Background(), nil, Request{Rating: 5})
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)

	readOnly, err := auth.FromKeys("", me.NPub())
	require.NoError(t, err)
	_, err = NewService(readOnly, notes.NewPublisher(c, readOnly, nil), files.NewSessionStore(), "", "").
		Submit(context.Background(), nil, Request{Rating: 5})
	assert.ErrorIs(t, err, auth.ErrReadOnly)

	svc := NewService(me, notes.NewPublisher(c, me, nil), files.NewSessionStore(), "", "")
	_, err = svc.Submit(context.Background(), nil, Request{Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Submit(context.Background(), nil, Request{Rating: 5, Recipient: "npub1bad"})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	assert.Empty(t, c.published)
}

func TestStateAndDismiss(t *testing.T) {
	me, _ := keypair(t)
	current := start
	session := files.NewSessionStore()
	svc := NewService(me, notes.NewPublisher(&capture{}, me, nil), session, "", "",
		WithClock(func() time.Time { return current }))

	assert.Equal(t, State{}, svc.State(), "not shown before the delay")
	current = start.Add(ShowDelay)
	assert.Equal(t, State{Open: true}, svc.State())

	svc.Dismiss()
	assert.Equal(t, State{HasSubmitted: true}, svc.State())
}
