// Package adminpanel implements the client side of the admin moderation
// panel: an authenticated HTTP adapter, a persisted session store, the
// record classifiers, the endpoint fallback executor and the per-page
// action orchestrator.
package adminpanel

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const (
	storeKeyToken     = "token"
	storeKeyProfile   = "profile"
	storeKeyFavorites = "favorites"
)

// Profile is the cached identity of the signed-in admin.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store is a file-backed JSON key-value session store. Each key is read and
// written independently; a missing file behaves as an empty store.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store persisted at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Token returns the persisted bearer token, or "".
func (s *Store) Token() string {
	var token string
	_ = s.read(storeKeyToken, &token)
	return token
}

// SetToken persists the bearer token.
func (s *Store) SetToken(token string) error {
	return s.write(storeKeyToken, token)
}

// HasToken reports whether a token is present. Token presence is the sole
// authorization gate for panel views.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// Profile returns the cached admin profile when one is stored. Presence is
// keyed on the store entry, so an empty stored profile still reports true.
func (s *Store) Profile() (Profile, bool) {
	var p Profile
	if err := s.read(storeKeyProfile, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

// SetProfile caches the admin profile.
func (s *Store) SetProfile(p Profile) error {
	return s.write(storeKeyProfile, p)
}

// Favorites returns the persisted favorites list.
func (s *Store) Favorites() []string {
	var favs []string
	_ = s.read(storeKeyFavorites, &favs)
	return favs
}

// SetFavorites persists the favorites list.
func (s *Store) SetFavorites(favs []string) error {
	return s.write(storeKeyFavorites, favs)
}

// Clear removes the token and profile. Favorites survive a logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	delete(data, storeKeyToken)
	delete(data, storeKeyProfile)
	return s.save(data)
}

func (s *Store) read(key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	raw, ok := data[key]
	if !ok {
		return errors.New("key not set")
	}
	return json.Unmarshal(raw, out)
}

func (s *Store) write(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	data[key] = raw
	return s.save(data)
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	data := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt store is treated as empty rather than wedging the panel.
		return map[string]json.RawMessage{}, nil
	}
	return data, nil
}

func (s *Store) save(data map[string]json.RawMessage) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0o600)
}
