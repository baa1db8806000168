package crypto

import (
	"errors"
	"fmt"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip44"
)

var (
	ErrInvalidNostrKey = errors.New("nip44: invalid key")
	ErrPlaintextSize   = errors.New("nip44: plaintext must be 1..65535 bytes")
	ErrDecrypt         = errors.New("nip44: cannot decrypt payload")
)

const maxPlaintextSize = 65535

// ConversationKey derives the NIP-44 v2 key shared between a secret key and
// a peer's x-only public key, both hex encoded.
func ConversationKey(secretHex, peerPubHex string) ([32]byte, error) {
	if !gonostr.IsValid32ByteHex(secretHex) || !gonostr.IsValidPublicKey(peerPubHex) {
		return [32]byte{}, ErrInvalidNostrKey
	}
	key, err := nip44.GenerateConversationKey(peerPubHex, secretHex)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrInvalidNostrKey, err)
	}
	return key, nil
}

// Encrypt seals plaintext under the conversation key and returns the base64 payload.
func Encrypt(conversationKey [32]byte, plaintext string) (string, error) {
	return encrypt(conversationKey, plaintext, nil)
}

func encryptWithNonce(conversationKey [32]byte, nonce []byte, plaintext string) (string, error) {
	return encrypt(conversationKey, plaintext, nonce)
}

func encrypt(conversationKey [32]byte, plaintext string, nonce []byte) (string, error) {
	if len(plaintext) == 0 || len(plaintext) > maxPlaintextSize {
		return "", ErrPlaintextSize
	}
	var payload string
	var err error
	if nonce == nil {
		payload, err = nip44.Encrypt(plaintext, conversationKey)
	} else {
		payload, err = nip44.Encrypt(plaintext, conversationKey, nip44.WithCustomNonce(nonce))
	}
	if err != nil {
		return "", fmt.Errorf("nip44 encrypt: %w", err)
	}
	return payload, nil
}

// Decrypt opens a payload produced by Encrypt.
func Decrypt(conversationKey [32]byte, payload string) (string, error) {
	plain, err := nip44.Decrypt(payload, conversationKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}
