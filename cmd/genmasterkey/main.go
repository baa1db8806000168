package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/revisitor/internal/crypto"
	"github.com/harrylevesque/revisitor/internal/files"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		keyFile   string
		withNostr bool
		saveNsec  string
	)
	cmd := &cobra.Command{
		Use:           "genmasterkey",
		Short:         "Write a new master key, optionally with a Nostr key pair",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			master, err := writeMasterKey(keyFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Master key written to %s\n", keyFile)
			if withNostr || saveNsec != "" {
				return newNostrKey(out, master, saveNsec)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyFile, "out", "o", "master.key", "master key file")
	cmd.Flags().BoolVar(&withNostr, "nostr", false, "also generate a Nostr key pair")
	cmd.Flags().StringVar(&saveNsec, "key-file", "", "seal the generated Nostr secret key into this file")
	return cmd
}

func writeMasterKey(path string) ([]byte, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists. Refusing to overwrite", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	key, err := crypto.RandomKey()
	if err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return key, nil
}

func newNostrKey(out io.Writer, master []byte, keyFile string) error {
	sk, err := nostr.GeneratePrivateKey()
	if err != nil {
		return err
	}
	pk, err := nostr.PublicKey(sk)
	if err != nil {
		return err
	}
	nsec, err := nostr.EncodeSecretKey(sk)
	if err != nil {
		return err
	}
	npub, err := nostr.EncodePublicKey(pk)
	if err != nil {
		return err
	}
	if keyFile != "" {
		if err := files.SaveSecretKey(keyFile, sk, master); err != nil {
			return err
		}
		fmt.Fprintf(out, "Secret key sealed into %s\n", keyFile)
	} else {
		fmt.Fprintf(out, "nsec: %s\n", nsec)
	}
	fmt.Fprintf(out, "npub: %s\n", npub)
	return nil
}
