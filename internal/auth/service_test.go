package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *Memory) {
	t.Helper()
	store := NewMemory()
	svc, err := NewService(store, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func registerUser(t *testing.T, svc *Service, email string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email:           email,
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email:           "  ada@example.com ",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
		FirstName:       "Ada",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email not trimmed: %q", u.Email)
	}
	if !u.IsActive || u.IsStaff {
		t.Fatalf("unexpected flags: %+v", u)
	}
	if u.PasswordHash == "s3cret" {
		t.Fatal("password stored in plaintext")
	}

	tok, err := svc.Login(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.UserID != u.ID || !tok.IsActive {
		t.Fatalf("unexpected token: %+v", tok)
	}

	got, err := svc.Authenticate(ctx, "Token "+tok.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated user = %s, want %s", got.ID, u.ID)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		Password:        "one",
		PasswordConfirm: "two",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	registerUser(t, svc, "ada@example.com")
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		Password:        "other",
		PasswordConfirm: "other",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	registerUser(t, svc, "ada@example.com")
	ctx := context.Background()

	_, unknownErr := svc.Login(ctx, "ghost@example.com", "s3cret")
	_, wrongErr := svc.Login(ctx, "ada@example.com", "wrong")
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v, wrong password: %v; both must be ErrInvalidCredentials", unknownErr, wrongErr)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerUser(t, svc, "ada@example.com")
	ctx := context.Background()

	if err := svc.SoftDeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// Correct password, inactive account: distinct from bad credentials.
	_, err := svc.Login(ctx, "ada@example.com", "s3cret")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := newTestService(t, WithClock(clock), WithTokenTTL(time.Hour))
	ctx := context.Background()

	if svc.TokenTTL() != time.Hour {
		t.Fatalf("token ttl = %v, want %v", svc.TokenTTL(), time.Hour)
	}

	u := registerUser(t, svc, "ada@example.com")
	tok, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := now.Add(time.Hour); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", tok.ExpiresAt, want)
	}

	// One second before expiry the token is good.
	now = tok.ExpiresAt.Add(-time.Second)
	if _, err := svc.Authenticate(ctx, "Token "+tok.Token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	// At exactly expires_at validation fails and the token is revoked.
	now = tok.ExpiresAt
	_, err = svc.Authenticate(ctx, "Token "+tok.Token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at the boundary, got %v", err)
	}

	// The lazy flip persisted: the same token now fails resolution even if
	// the clock were rolled back.
	now = tok.ExpiresAt.Add(-time.Hour)
	_, err = svc.Authenticate(ctx, "Token "+tok.Token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after lazy revocation, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		value  string
		ok     bool
	}{
		{"Token abc123", "abc123", true},
		{"Token   abc123  ", "abc123", true},
		{"token abc123", "", false}, // scheme is case-sensitive
		{"Bearer abc123", "", false},
		{"Token ", "", false},
		{"", "", false},
		{"abc123", "", false},
	}
	for _, tc := range cases {
		value, err := ExtractToken(tc.header)
		if tc.ok {
			if err != nil {
				t.Fatalf("ExtractToken(%q): %v", tc.header, err)
			}
			if value != tc.value {
				t.Fatalf("ExtractToken(%q) = %q, want %q", tc.header, value, tc.value)
			}
			continue
		}
		if !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("ExtractToken(%q): expected ErrMissingCredentials, got %v", tc.header, err)
		}
	}
}

func TestLogoutRevokesSingleToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, svc, "ada@example.com")

	first, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Logout(ctx, first.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "Token "+first.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token still valid: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "Token "+second.Token); err != nil {
		t.Fatalf("unrelated token revoked: %v", err)
	}
}

func TestRevokeAllTokensNotRetroactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, svc, "ada@example.com")

	old, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.RevokeAllTokens(ctx, u.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "Token "+old.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token survived revoke-all: %v", err)
	}

	// A token issued after the sweep is unaffected.
	fresh, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "Token "+fresh.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestSoftDeleteInvalidatesTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, svc, "ada@example.com")
	tok, err := svc.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.SoftDeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "Token "+tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after soft delete, got %v", err)
	}

	// The row survives; only the flag flipped.
	got, err := svc.store.Users(ctx).Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("find after soft delete: %v", err)
	}
	if got.IsActive {
		t.Fatal("user still active after soft delete")
	}
}

func TestUpdateProfileEmptyNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, svc, "ada@example.com")

	got, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("unexpected user: %+v", got)
	}

	first, middle := "Ada", "M"
	got, err = svc.UpdateProfile(ctx, u.ID, ProfileUpdate{FirstName: &first, MiddleName: &middle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FirstName != "Ada" || got.MiddleName != "M" || got.LastName != "" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}
