package miauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/minarelay/internal/domain"
)

// tokenFile is the on-disk layout, kept compatible with the token files
// the MiHome tooling writes: the per-service entry is [ssecurity,
// serviceToken].
type tokenFile struct {
	UserID  string    `json:"userId"`
	MicoAPI [2]string `json:"micoapi"`
}

// TokenStore persists session artifacts to a file keyed by account
// identity (~/.<account>.mi.token).
type TokenStore struct {
	path string
}

// NewTokenStore creates a store for the given account at the default
// location.
func NewTokenStore(account string) *TokenStore {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &TokenStore{path: filepath.Join(home, "."+account+".mi.token")}
}

// NewTokenStoreAt creates a store backed by an explicit file path.
func NewTokenStoreAt(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string { return s.path }

// Save writes the session artifacts. The device id is not an auth
// artifact and is not persisted.
func (s *TokenStore) Save(state *domain.SessionState) error {
	data, err := json.Marshal(tokenFile{
		UserID:  state.UserID,
		MicoAPI: [2]string{state.Security, state.ServiceToken},
	})
	if err != nil {
		return fmt.Errorf("miauth: marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("miauth: write token file: %w", err)
	}
	return nil
}

// Load reads previously persisted artifacts. Returns os.ErrNotExist when
// no token file is present yet.
func (s *TokenStore) Load() (*domain.SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("miauth: parse token file: %w", err)
	}
	return &domain.SessionState{
		UserID:       tf.UserID,
		Security:     tf.MicoAPI[0],
		ServiceToken: tf.MicoAPI[1],
	}, nil
}
