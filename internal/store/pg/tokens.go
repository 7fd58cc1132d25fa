package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kozhinae/fastauth/internal/auth"
)

type tokenStore struct{ db *sql.DB }

func (s *tokenStore) Create(ctx context.Context, tok *auth.AuthToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into auth_tokens (id, user_id, token, created_at, expires_at, is_active)
		values ($1, $2, $3, $4, $5, $6)
	`, tok.ID, tok.UserID, tok.Token, tok.CreatedAt, tok.ExpiresAt, tok.IsActive)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

func (s *tokenStore) FindActive(ctx context.Context, token string) (*auth.AuthToken, error) {
	var tok auth.AuthToken
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, token, created_at, expires_at, is_active
		from auth_tokens
		where token = $1 and is_active = true
	`, token).Scan(&tok.ID, &tok.UserID, &tok.Token, &tok.CreatedAt, &tok.ExpiresAt, &tok.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Revoke is idempotent: flipping an already-inactive token is a benign
// duplicate update, which is what concurrent lazy-expiry validators rely on.
func (s *tokenStore) Revoke(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update auth_tokens set is_active = false where id = $1`, id)
	return err
}

// RevokeAllForUser is deliberately one bulk statement so no window exists
// where some of the user's tokens are valid and others are not.
func (s *tokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`update auth_tokens set is_active = false where user_id = $1`, userID)
	return err
}
