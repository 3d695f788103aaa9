// Package userconfig owns the CLI's per-user directory, ~/.config/fintrack, and the
// non-secret preferences kept in it.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName        = "fintrack"
	configFileName = "config.json"
)

// UserConfig is the preferences file. It never holds credentials; the token lives in the token store.
type UserConfig struct {
	RememberedEmail string `json:"remembered_email,omitempty"`
}

// Dir returns ~/.config/fintrack
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", dirName), nil
}

// GetConfigPath returns the path to the preferences file
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// WriteFileAtomic replaces path with data, readable only by the owner. Missing parent
// directories are created. Readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict %s: %w", tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Load reads the preferences. A missing file means no preferences.
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return &cfg, nil
}

// Save replaces the preferences file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := WriteFileAtomic(configPath, data); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// SetRememberedEmail stores the email to pre-fill on the next login. An empty email forgets it.
func SetRememberedEmail(email string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.RememberedEmail = strings.TrimSpace(email)
	return Save(cfg)
}

// GetRememberedEmail returns the remembered email, or empty string if not set
func GetRememberedEmail() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.RememberedEmail, nil
}
