// Package config loads the notepad settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"notepad/internal/editor"
)

const fileName = "config.json"

type Config struct {
	HistoryLimit int    `json:"history_limit"`
	WordWrap     bool   `json:"word_wrap"`
	Compress     bool   `json:"compress"`
	Clipboard    string `json:"clipboard"`
}

var ErrInvalid = errors.New("config: invalid value")

func Default() Config {
	return Config{
		HistoryLimit: editor.DefaultHistoryLimit,
		WordWrap:     true,
		Clipboard:    "system",
	}
}

// DefaultPath is notepad/config.json under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notepad", fileName), nil
}

// FromFile returns the settings parsed from path. Keys missing from the file
// keep their default values.
func FromFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads path, or DefaultPath when path is empty. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			cfg := Default()
			return &cfg, nil
		}
		path = p
	}
	cfg, err := FromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		def := Default()
		return &def, nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: history_limit %d", ErrInvalid, c.HistoryLimit)
	}
	switch c.Clipboard {
	case "system", "native", "memory":
	default:
		return fmt.Errorf("%w: clipboard %q", ErrInvalid, c.Clipboard)
	}
	return nil
}

// EditorOptions maps the settings onto document options.
func (c Config) EditorOptions() editor.Options {
	opts := editor.Options{
		HistoryLimit:    c.HistoryLimit,
		DisableWordWrap: !c.WordWrap,
	}
	opts.Storage.Compression = c.Compress
	return opts
}
