package nostr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePublicKeyKnownVector(t *testing.T) {
	npub, err := EncodePublicKey("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")
	require.NoError(t, err)
	assert.Equal(t, "npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6", npub)

	p, err := Decode(npub)
	require.NoError(t, err)
	assert.Equal(t, PrefixNpub, p.Type)
	assert.Equal(t, "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d", p.Hex)
}

func TestSimpleRoundTrips(t *testing.T) {
	sk, pk := newKey(t)
	id := signedNote(t, sk, 1, "x").ID

	tests := []struct {
		name   string
		encode func(string) (string, error)
		in     string
		prefix string
	}{
		{"npub", EncodePublicKey, pk, PrefixNpub},
		{"nsec", EncodeSecretKey, sk, PrefixNsec},
		{"note", EncodeNote, id, PrefixNote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.encode(tt.in)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(s, tt.prefix+"1"))

			p, err := Decode(s)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, p.Type)
			assert.Equal(t, tt.in, p.Hex)
		})
	}
}

func TestEventPointerRoundTrip(t *testing.T) {
	sk, pk := newKey(t)
	id := signedNote(t, sk, 1, "x").ID

	s, err := EncodeEvent(id, []string{"wss://relay.example.com"}, pk)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "nevent1"))
	assert.Greater(t, len(s), 90, "nevent strings exceed the bech32 90-char limit")

	p, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, PrefixNevent, p.Type)
	assert.Equal(t, id, p.Hex)
	assert.Equal(t, pk, p.Author)
	assert.Equal(t, []string{"wss://relay.example.com"}, p.Relays)
}

func TestProfilePointerRoundTrip(t *testing.T) {
	_, pk := newKey(t)
	s, err := EncodeProfile(pk, []string{"wss://a", "wss://b"})
	require.NoError(t, err)

	p, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, PrefixNprofile, p.Type)
	assert.Equal(t, pk, p.Hex)
	assert.Equal(t, []string{"wss://a", "wss://b"}, p.Relays)
}

func TestDecodeErrors(t *testing.T) {
	for _, s := range []string{"", "npub1", "npub1qqqqqq", "hello", "nevent1qqqqqqqqqq"} {
		_, err := Decode(s)
		assert.Error(t, err, s)
	}
}

func TestEncodeRejectsBadHex(t *testing.T) {
	_, err := EncodePublicKey("zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = EncodeEvent("abcd", nil, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIsValidPublicKey(t *testing.T) {
	_, pk := newKey(t)
	assert.True(t, IsValidPublicKey(pk))
	assert.False(t, IsValidPublicKey("abc"))
	assert.False(t, IsValidPublicKey(strings.Repeat("g", 64)))
}
