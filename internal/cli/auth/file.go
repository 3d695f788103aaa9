package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fintrack-dev/fintrack/internal/cli/userconfig"
)

const tokenFileName = "session.yaml"

// sessionFile is the on-disk layout of the file store
type sessionFile struct {
	Token string `yaml:"token"`
}

// FileStore persists the token in a YAML file readable only by the owner.
// Useful on headless machines without a keyring daemon.
type FileStore struct {
	path string
}

// DefaultTokenFile returns ~/.config/fintrack/session.yaml
func DefaultTokenFile() (string, error) {
	dir, err := userconfig.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// NewFileStore creates a file-backed token store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the token is written to
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the token, replacing any previous one atomically
func (f *FileStore) Save(token string) error {
	data, err := yaml.Marshal(sessionFile{Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	if err := userconfig.WriteFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load returns the stored token, or ErrNoToken if there is none
func (f *FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	var sf sessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("failed to parse session file: %w", err)
	}
	if sf.Token == "" {
		return "", ErrNoToken
	}
	return sf.Token, nil
}

// Delete removes the session file. A missing file is not an error.
func (f *FileStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
