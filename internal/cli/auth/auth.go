package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "fintrack-cli"

	// TokenKey is the well-known key the bearer token is stored under
	TokenKey = "token"
)

// ErrNoToken is returned by Load when no token has been persisted
var ErrNoToken = errors.New("no token stored")

// KeyringStore persists the token in the OS keychain/credential manager
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed token store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Save persists the token securely in the OS keychain/credential manager
func (k *KeyringStore) Save(token string) error {
	if err := keyring.Set(service, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the token from the OS keychain/credential manager
func (k *KeyringStore) Load() (string, error) {
	token, err := keyring.Get(service, TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the token from the OS keychain/credential manager
func (k *KeyringStore) Delete() error {
	if err := keyring.Delete(service, TokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
