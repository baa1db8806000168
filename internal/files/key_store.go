package files

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrKeyFileExists is returned when SaveSecretKey would overwrite a key file.
var ErrKeyFileExists = errors.New("key file already exists")

type keyFile struct {
	SecretKey string    `json:"secret_key"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveSecretKey seals a hex Nostr secret key into path with the master key.
// It refuses to overwrite an existing file.
func SaveSecretKey(path, secretHex string, masterKey []byte) error {
	if masterKey == nil {
		return errors.New("a master key is required to store a secret key")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrKeyFileExists)
	}
	return writeSealedFile(path, keyFile{SecretKey: secretHex, CreatedAt: time.Now().UTC()}, masterKey)
}

// LoadSecretKey opens a key file written by SaveSecretKey.
func LoadSecretKey(path string, masterKey []byte) (string, error) {
	if masterKey == nil {
		return "", errors.New("a master key is required to read a secret key")
	}
	var kf keyFile
	if err := readSealedFile(path, &kf, masterKey); err != nil {
		return "", err
	}
	if kf.SecretKey == "" {
		return "", fmt.Errorf("%s holds no secret key", path)
	}
	return kf.SecretKey, nil
}
