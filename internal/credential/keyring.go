package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "tempbox"

// Vault stores mailbox credentials outside the database file. Keys are
// address IDs; each address carries a password and, once authenticated,
// a bearer token.
type Vault interface {
	SetPassword(addressID, password string) error
	Password(addressID string) (string, error)
	SetToken(addressID, token string) error
	Token(addressID string) (string, error)

	// Delete removes both entries for an address. Missing entries are
	// not an error; deletion is best effort during address removal.
	Delete(addressID string) error
}

// KeyringVault is a Vault backed by the system keyring.
type KeyringVault struct{}

var _ Vault = KeyringVault{}

// NewKeyringVault returns a Vault backed by the platform keyring,
// verifying the backend can be opened.
func NewKeyringVault() (KeyringVault, error) {
	if _, err := openKeyring(); err != nil {
		return KeyringVault{}, err
	}
	return KeyringVault{}, nil
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/tempbox/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("tempbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func (KeyringVault) SetPassword(addressID, password string) error {
	return set(passwordKey(addressID), password)
}

func (KeyringVault) Password(addressID string) (string, error) {
	return get(passwordKey(addressID))
}

func (KeyringVault) SetToken(addressID, token string) error {
	return set(tokenKey(addressID), token)
}

func (KeyringVault) Token(addressID string) (string, error) {
	return get(tokenKey(addressID))
}

func (KeyringVault) Delete(addressID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	for _, key := range []string{passwordKey(addressID), tokenKey(addressID)} {
		if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("removing credential %q: %w", key, err)
		}
	}
	return nil
}

func passwordKey(addressID string) string { return "password:" + addressID }
func tokenKey(addressID string) string    { return "token:" + addressID }

// get retrieves a credential value by key from the system keyring.
// A missing key reads as empty, not as an error.
func get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// set stores a credential value by key in the system keyring.
func set(key, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}
