package auth

import (
	"fmt"
	"sync"

	"github.com/fintrack-dev/fintrack/internal/config"
)

// TokenStore defines the interface for token storage operations.
// Only the session manager writes through it.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Delete() error
}

// NewStore returns the token store selected in the session config
func NewStore(cfg config.SessionConfig) (TokenStore, error) {
	switch cfg.Store {
	case config.TokenStoreKeyring, "":
		return NewKeyringStore(), nil
	case config.TokenStoreFile:
		path := cfg.TokenFile
		if path == "" {
			defaultPath, err := DefaultTokenFile()
			if err != nil {
				return nil, err
			}
			path = defaultPath
		}
		return NewFileStore(path), nil
	case config.TokenStoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Store)
	}
}

// MemoryStore keeps the token in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an empty in-memory token store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the held token
func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Load returns the held token, or ErrNoToken if there is none
func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

// Delete forgets the held token
func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
