// Package config loads and saves the CLI's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all CLI configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Serve   ServeConfig   `toml:"serve"`
}

type BackendConfig struct {
	// BaseURL of the forum backend.
	BaseURL string `toml:"base_url"`
	// SessionFile is where the signed-in session is persisted.
	SessionFile string `toml:"session_file"`
}

type ServeConfig struct {
	Addr      string `toml:"addr"`
	UploadDir string `toml:"upload_dir"`
	// Secret signs the dev server's tokens. Dev-only, not a production
	// credential.
	Secret string `toml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Backend: BackendConfig{
			BaseURL:     "http://localhost:3001",
			SessionFile: filepath.Join(home, ".babble", "session.json"),
		},
		Serve: ServeConfig{
			Addr:      ":3001",
			UploadDir: filepath.Join(home, ".babble", "uploads"),
			Secret:    "babble-dev-secret",
		},
	}
}

// Load reads the config at path, falling back to defaults when the file does
// not exist. Unknown keys are an error so typos don't silently disable
// settings.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
