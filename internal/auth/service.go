package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTokenTTL = 8 * time.Hour

// tokenScheme is the only accepted Authorization scheme. The scheme word is
// case-sensitive and followed by a single space.
const tokenScheme = "Token "

// Service provides the token lifecycle, user registry, and authorization
// operations on top of a Store.
type Service struct {
	store    Store
	now      func() time.Time
	tokenTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenTTL configures the bearer token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("auth: token ttl must be greater than zero")
		}
		s.tokenTTL = ttl
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	svc := &Service{
		store:    store,
		now:      time.Now,
		tokenTTL: defaultTokenTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// TokenTTL returns the configured bearer token lifetime.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	MiddleName      string
}

// Register creates a new user account. The store's unique constraint on
// email is the source of truth for duplicates.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.Password != in.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a fresh token. A missing user and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.IssueToken(ctx, user)
}

// IssueToken mints a random bearer token for the user with
// expires_at = created_at + configured lifetime.
func (s *Service) IssueToken(ctx context.Context, user *User) (*AuthToken, error) {
	value, err := NewTokenString()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	tok := &AuthToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
		IsActive:  true,
	}
	if err := s.store.Tokens(ctx).Create(ctx, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// ResolveToken looks up an active token by its exact string.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*AuthToken, error) {
	tok, err := s.store.Tokens(ctx).FindActive(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return tok, nil
}

// ValidateToken checks expiry and the owning user's state. An expired token
// still marked active is flipped inactive on this read; the flip is
// idempotent, so concurrent validators racing on the same token all observe
// ErrTokenExpired.
func (s *Service) ValidateToken(ctx context.Context, tok *AuthToken) (*User, error) {
	if !tok.ExpiresAt.After(s.now().UTC()) {
		if err := s.store.Tokens(ctx).Revoke(ctx, tok.ID); err != nil {
			return nil, err
		}
		tok.IsActive = false
		return nil, ErrTokenExpired
	}
	user, err := s.store.Users(ctx).Find(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// ExtractToken pulls the token string out of a raw Authorization header.
// Anything other than the "Token <value>" form counts as no credentials.
func ExtractToken(header string) (string, error) {
	if !strings.HasPrefix(header, tokenScheme) {
		return "", ErrMissingCredentials
	}
	value := strings.TrimSpace(header[len(tokenScheme):])
	if value == "" {
		return "", ErrMissingCredentials
	}
	return value, nil
}

// Authenticate resolves a raw Authorization header to a user: extract,
// resolve, validate. This is the single entry point protected handlers go
// through.
func (s *Service) Authenticate(ctx context.Context, rawHeader string) (*User, error) {
	value, err := ExtractToken(rawHeader)
	if err != nil {
		return nil, err
	}
	tok, err := s.ResolveToken(ctx, value)
	if err != nil {
		return nil, err
	}
	return s.ValidateToken(ctx, tok)
}

// Logout revokes a single token by its string value. The session gateway
// stashes the value in the request context at authentication time, so
// handlers never re-parse the Authorization header.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	tok, err := s.ResolveToken(ctx, tokenString)
	if err != nil {
		return err
	}
	return s.store.Tokens(ctx).Revoke(ctx, tok.ID)
}

// RevokeAllTokens deactivates every token issued to the user in one atomic
// update. Tokens issued afterwards are unaffected.
func (s *Service) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.store.Tokens(ctx).RevokeAllForUser(ctx, userID)
}

// UpdateProfile applies the allow-listed profile fields. An empty update is
// a no-op that returns the current record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	if upd.Empty() {
		return s.store.Users(ctx).Find(ctx, userID)
	}
	return s.store.Users(ctx).UpdateProfile(ctx, userID, upd)
}

// SoftDeleteUser marks the account inactive and then revokes all of its
// tokens. The row stays in place. Deactivation comes first so that a token
// validated between the two steps already fails the user-active check.
func (s *Service) SoftDeleteUser(ctx context.Context, userID string) error {
	if err := s.store.Users(ctx).Deactivate(ctx, userID); err != nil {
		return err
	}
	return s.RevokeAllTokens(ctx, userID)
}
