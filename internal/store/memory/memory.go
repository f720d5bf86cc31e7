// Package memory provides in-process store adapters for development
// and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/store"
)

// TokenStore implements store.TokenStore in memory.
type TokenStore struct {
	mu     sync.RWMutex
	byID   map[string]*store.AccessToken
	byHash map[string]string // token hash → id
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		byID:   make(map[string]*store.AccessToken),
		byHash: make(map[string]string),
	}
}

func (s *TokenStore) Create(_ context.Context, userID, name string, abilities []string) (string, error) {
	value, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}

	t := &store.AccessToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Abilities: append([]string(nil), abilities...),
		TokenHash: tokens.SHA256Base64URL(value),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.byID[t.ID] = t
	s.byHash[t.TokenHash] = t.ID
	s.mu.Unlock()

	return value, nil
}

func (s *TokenStore) FindByValue(_ context.Context, value string) (*store.AccessToken, error) {
	hash := tokens.SHA256Base64URL(value)

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	t := *s.byID[id]
	return &t, nil
}

func (s *TokenStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.byID[id]; ok {
		delete(s.byHash, t.TokenHash)
		delete(s.byID, id)
	}
	return nil
}

func (s *TokenStore) Touch(_ context.Context, id string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	w := when.UTC()
	t.LastUsedAt = &w
	return nil
}

// UserDirectory implements store.UserDirectory over a fixed user set.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]store.User
}

func NewUserDirectory(users ...store.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]store.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Add inserts or replaces a user.
func (d *UserDirectory) Add(u store.User) {
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
}

func (d *UserDirectory) GetByID(_ context.Context, id string) (*store.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}
