package files

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrylevesque/revisitor/internal/crypto"
)

// writeSealedFile marshals v as JSON and writes it to path, sealed with key
// when key is non-nil. The write goes through a temp file and a rename.
func writeSealedFile(path string, v any, key []byte) error {
	plain, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data := plain
	if key != nil {
		if data, err = crypto.EncryptAESGCM(key, plain); err != nil {
			return fmt.Errorf("seal %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readSealedFile reads path into v, opening it with key when key is non-nil.
// A missing file reports os.ErrNotExist.
func readSealedFile(path string, v any, key []byte) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain := blob
	if key != nil {
		if plain, err = crypto.DecryptAESGCM(key, blob); err != nil {
			return fmt.Errorf("open sealed %s: %w", path, err)
		}
	}
	return json.Unmarshal(plain, v)
}
