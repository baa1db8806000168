// Package config loads revisitor settings from a YAML file with REVISITOR_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/harrylevesque/revisitor/internal/files"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/relays"
	"github.com/harrylevesque/revisitor/internal/utils"
)

// DefaultFile is read when no path is given.
const DefaultFile = "revisitor.yaml"

type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Path    string `yaml:"path" env:"PATH"`
	Encrypt bool   `yaml:"encrypt" env:"ENCRYPT"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"KEY_FILE"`
}

func (t TLSConfig) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	File  string `yaml:"file" env:"FILE"`
}

type Config struct {
	Listen string `yaml:"listen" env:"REVISITOR_LISTEN"`
	AppURL string `yaml:"app_url" env:"REVISITOR_APP_URL"`

	DefaultRelay string               `yaml:"default_relay" env:"REVISITOR_DEFAULT_RELAY"`
	PresetRelays []models.RelayPreset `yaml:"preset_relays" env:"-"`

	// Identity. NSec wins over KeyFile; NPub alone gives read-only access.
	NSec          string `yaml:"nsec" env:"REVISITOR_NSEC"`
	NPub          string `yaml:"npub" env:"REVISITOR_NPUB"`
	KeyFile       string `yaml:"key_file" env:"REVISITOR_KEY_FILE"`
	MasterKeyFile string `yaml:"master_key_file" env:"REVISITOR_MASTER_KEY_FILE"`

	FeedbackRecipient string `yaml:"feedback_recipient" env:"REVISITOR_FEEDBACK_RECIPIENT"`

	Store StoreConfig `yaml:"store" envPrefix:"REVISITOR_STORE_"`
	Log   LogConfig   `yaml:"log" envPrefix:"REVISITOR_LOG_"`
	TLS   TLSConfig   `yaml:"tls" envPrefix:"REVISITOR_TLS_"`

	QueryTimeout time.Duration `yaml:"query_timeout" env:"REVISITOR_QUERY_TIMEOUT"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"REVISITOR_CACHE_TTL"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Listen:        ":8080",
		AppURL:        "http://localhost:8080",
		DefaultRelay:  "wss://relay.damus.io",
		PresetRelays:  append([]models.RelayPreset(nil), relays.DefaultPresets...),
		MasterKeyFile: "master.key",
		Store: StoreConfig{
			Backend: files.BackendJSON,
			Path:    filepath.Join(utils.GetDataDir(), "reviews.json"),
		},
		Log:          LogConfig{Level: "info"},
		QueryTimeout: 5 * time.Second,
		CacheTTL:     5 * time.Minute,
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DefaultRelay = relays.Normalize(cfg.DefaultRelay)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if !relays.IsValidInput(c.DefaultRelay) {
		errs = append(errs, fmt.Errorf("default relay %q is not a valid URL", c.DefaultRelay))
	}
	switch c.Store.Backend {
	case files.BackendJSON, files.BackendSQLite, files.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Backend != files.BackendMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store path is empty"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("tls needs both cert_file and key_file"))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query timeout must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache ttl must not be negative"))
	}
	return errors.Join(errs...)
}

var (
	loaded     Config
	loadErr    error
	loadedOnce sync.Once
)

// LoadOnce loads the configuration on first use and caches the result.
func LoadOnce(path string) (Config, error) {
	loadedOnce.Do(func() {
		loaded, loadErr = Load(path)
	})
	return loaded, loadErr
}
