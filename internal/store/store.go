// Package store defines the persistence collaborators of the protocol
// engine: the bearer-token store and the user directory.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a token or user does not exist.
var ErrNotFound = errors.New("store: not found")

// AccessToken is an issued bearer token. The plaintext value is never
// stored; lookups go through its SHA-256 hash, Sanctum-style.
type AccessToken struct {
	ID         string
	UserID     string
	Name       string // the client URL the token was issued to
	Abilities  []string
	TokenHash  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// User is a profile entry from the user directory. URL is the user's
// canonical identity URL (the IndieAuth "me").
type User struct {
	ID    string
	Name  string
	URL   string
	Email string
}

// TokenStore creates, resolves and revokes bearer tokens.
type TokenStore interface {
	// Create mints a token for userID with the given name and abilities.
	// The returned plaintext value is shown exactly once.
	Create(ctx context.Context, userID, name string, abilities []string) (string, error)

	// FindByValue resolves a plaintext token value.
	// Returns ErrNotFound if no live token hashes to it.
	FindByValue(ctx context.Context, value string) (*AccessToken, error)

	// Delete removes a token by ID. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error

	// Touch updates a token's last-used timestamp.
	Touch(ctx context.Context, id string, when time.Time) error
}

// UserDirectory resolves a user identifier to profile fields.
type UserDirectory interface {
	// GetByID returns the user's profile. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*User, error)
}
