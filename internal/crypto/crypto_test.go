package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPair(t *testing.T) (string, string) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return hex.EncodeToString(priv.Serialize()), hex.EncodeToString(schnorr.SerializePubKey(priv.PubKey()))
}

func TestConversationKeyVector(t *testing.T) {
	sec1 := strings.Repeat("0", 63) + "1"
	sec2 := strings.Repeat("0", 63) + "2"
	b, _ := hex.DecodeString(sec2)
	priv2, _ := btcec.PrivKeyFromBytes(b)
	pub2 := hex.EncodeToString(schnorr.SerializePubKey(priv2.PubKey()))

	key, err := ConversationKey(sec1, pub2)
	require.NoError(t, err)
	assert.Equal(t, "c41c775356fd92eadc63ff5a0dc1da211b268cbea22316767095b2871ea1412d", hex.EncodeToString(key[:]))
}

func TestConversationKeyIsSymmetric(t *testing.T) {
	skA, pkA := keyPair(t)
	skB, pkB := keyPair(t)

	ab, err := ConversationKey(skA, pkB)
	require.NoError(t, err)
	ba, err := ConversationKey(skB, pkA)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	_, err = ConversationKey("zz", pkB)
	assert.ErrorIs(t, err, ErrInvalidNostrKey)
}

func TestEncryptDecrypt(t *testing.T) {
	skA, _ := keyPair(t)
	_, pkB := keyPair(t)
	key, err := ConversationKey(skA, pkB)
	require.NoError(t, err)

	for _, msg := range []string{"a", "App Feedback:\n\nRating: 5/5 stars", strings.Repeat("x", 1000)} {
		payload, err := Encrypt(key, msg)
		require.NoError(t, err)
		got, err := Decrypt(key, payload)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}
}

func TestEncryptKnownVector(t *testing.T) {
	sec1 := strings.Repeat("0", 63) + "1"
	b, _ := hex.DecodeString(strings.Repeat("0", 63) + "2")
	priv2, _ := btcec.PrivKeyFromBytes(b)
	key, err := ConversationKey(sec1, hex.EncodeToString(schnorr.SerializePubKey(priv2.PubKey())))
	require.NoError(t, err)

	nonce := make([]byte, 32)
	nonce[31] = 1
	payload, err := encryptWithNonce(key, nonce, "a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "AgAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAB"))
	assert.True(t, strings.HasSuffix(payload, "F5Vsb"))

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Len(t, raw, 1+32+2+32+32)

	plain, err := Decrypt(key, payload)
	require.NoError(t, err)
	assert.Equal(t, "a", plain)
}

func TestDecryptRejectsTampering(t *testing.T) {
	skA, _ := keyPair(t)
	_, pkB := keyPair(t)
	key, err := ConversationKey(skA, pkB)
	require.NoError(t, err)

	payload, err := Encrypt(key, "secret")
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(payload)
	raw[40] ^= 0xff
	_, err = Decrypt(key, base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecrypt)

	var other [32]byte
	_, err = Decrypt(other, payload)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Decrypt(key, "#"+payload[1:])
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = Decrypt(key, "AgAA")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestEncryptRejectsEmpty(t *testing.T) {
	var key [32]byte
	_, err := Encrypt(key, "")
	assert.ErrorIs(t, err, ErrPlaintextSize)
}

func TestAESGCMRoundTrip(t *testing.T) {
	master, err := RandomKey()
	require.NoError(t, err)
	key, err := DeriveStoreKey(master)
	require.NoError(t, err)
	assert.NotEqual(t, master, key)

	blob, err := EncryptAESGCM(key, []byte(`{"a":1}`))
	require.NoError(t, err)
	plain, err := DecryptAESGCM(key, blob)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(plain))

	blob[len(blob)-1] ^= 1
	_, err = DecryptAESGCM(key, blob)
	assert.Error(t, err)

	_, err = EncryptAESGCM([]byte("short"), nil)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestLoadMasterKey(t *testing.T) {
	key := strings.Repeat("ab", 32)

	t.Run("env", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, key)
		b, err := LoadMasterKey(filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.Len(t, b, 32)
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "")
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte(key+"\n"), 0600))
		b, err := LoadMasterKey(path)
		require.NoError(t, err)
		assert.Equal(t, byte(0xab), b[0])
	})

	t.Run("bad length", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "abcd")
		_, err := LoadMasterKey("")
		assert.ErrorIs(t, err, ErrInvalidKeyLength)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(MasterKeyEnv, "")
		_, err := LoadMasterKey(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}
