package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Tokens(ctx context.Context) TokenStore
	Catalog(ctx context.Context) CatalogStore
}

// UserStore manages user records.
type UserStore interface {
	// Create persists a new user. The email unique constraint is the source
	// of truth for duplicates; violations surface as ErrConflict.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error)
	// Deactivate sets is_active = false without removing the row.
	Deactivate(ctx context.Context, userID string) error
}

// TokenStore manages the bearer token ledger.
type TokenStore interface {
	Create(ctx context.Context, tok *AuthToken) error
	// FindActive looks up a token by exact string where is_active = true.
	FindActive(ctx context.Context, token string) (*AuthToken, error)
	Revoke(ctx context.Context, id string) error
	// RevokeAllForUser deactivates every token of the user in one atomic
	// update, never one-by-one.
	RevokeAllForUser(ctx context.Context, userID string) error
}

// CatalogStore manages the role/resource/permission vocabulary and the
// grants between them.
type CatalogStore interface {
	CreateRole(ctx context.Context, name, description string) (Role, error)
	CreateResource(ctx context.Context, name, description string) (Resource, error)
	CreatePermission(ctx context.Context, action, description string) (Permission, error)
	CreateGrant(ctx context.Context, roleID, resourceID, permissionID int64) (Grant, error)
	AssignRole(ctx context.Context, userID string, roleID int64) (RoleAssignment, error)
	RoleIDsForUser(ctx context.Context, userID string) ([]int64, error)
	// HasGrant reports whether any of the roles holds a grant for exactly
	// (resourceName, action). Unknown resource or action yields false.
	HasGrant(ctx context.Context, roleIDs []int64, resourceName, action string) (bool, error)
}
