// Package pg provides PostgreSQL store adapters on pgxpool.
package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS access_token (
	id            UUID PRIMARY KEY,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	abilities     TEXT[] NOT NULL DEFAULT '{}',
	token_hash    TEXT NOT NULL UNIQUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_used_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS access_token_user_idx ON access_token (user_id);

CREATE TABLE IF NOT EXISTS account (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	url    TEXT NOT NULL DEFAULT '',
	email  TEXT NOT NULL DEFAULT ''
);
`

// Connect opens a pool and ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// TokenStore implements store.TokenStore on PostgreSQL.
type TokenStore struct{ pool *pgxpool.Pool }

func NewTokenStore(pool *pgxpool.Pool) *TokenStore { return &TokenStore{pool: pool} }

func (s *TokenStore) Create(ctx context.Context, userID, name string, abilities []string) (string, error) {
	value, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO access_token (id, user_id, name, abilities, token_hash)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = s.pool.Exec(ctx, query, uuid.NewString(), userID, name, abilities, tokens.SHA256Base64URL(value))
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *TokenStore) FindByValue(ctx context.Context, value string) (*store.AccessToken, error) {
	query := `
		SELECT id, user_id, name, abilities, token_hash, created_at, last_used_at
		FROM access_token WHERE token_hash = $1`

	var t store.AccessToken
	err := s.pool.QueryRow(ctx, query, tokens.SHA256Base64URL(value)).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Abilities, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TokenStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM access_token WHERE id = $1`, id)
	return err
}

func (s *TokenStore) Touch(ctx context.Context, id string, when time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE access_token SET last_used_at = $2 WHERE id = $1`, id, when.UTC())
	return err
}

// UserDirectory implements store.UserDirectory on PostgreSQL.
type UserDirectory struct{ pool *pgxpool.Pool }

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory { return &UserDirectory{pool: pool} }

func (d *UserDirectory) GetByID(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, url, email FROM account WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.URL, &u.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
