package credential

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

const (
	serviceName = "sharedspace"
	sessionKey  = "session-user-id"
)

// ErrNoSession is returned when no session token has been saved.
var ErrNoSession = errors.New("no saved session")

// Keyring keeps the session token in the OS keyring.
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the system keyring, falling back to an encrypted file
// under dir when no native backend is available.
func OpenKeyring(dir string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("sharedspace-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// Load returns the saved token, or ErrNoSession.
func (k *Keyring) Load() (string, error) {
	item, err := k.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", sessionKey, err)
	}
	return string(item.Data), nil
}

// Save stores the token.
func (k *Keyring) Save(token string) error {
	err := k.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  []byte(token),
		Label: "SharedSpace session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", sessionKey, err)
	}
	return nil
}

// Clear removes the token. Clearing an absent token is not an error.
func (k *Keyring) Clear() error {
	err := k.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", sessionKey, err)
	}
	return nil
}

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.Mutex
	token string
}

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.Save("")
}
