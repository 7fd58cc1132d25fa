package auth

import "time"

// User is a human account. Soft-deleted users keep their row with
// is_active = false so token and role references stay intact.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	MiddleName   string    `json:"middle_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthToken is an opaque bearer token bound to one user. Expired and revoked
// tokens are indistinguishable to callers: both end up is_active = false.
type AuthToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
}

// Role groups grants.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Resource is a protectable noun (e.g. "article").
type Resource struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Permission is an action verb independent of any resource.
type Permission struct {
	ID          int64  `json:"id"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Grant allows every holder of a role to perform an action on a resource.
// The (role, resource, permission) triple is unique.
type Grant struct {
	ID           int64 `json:"id"`
	RoleID       int64 `json:"role_id"`
	ResourceID   int64 `json:"resource_id"`
	PermissionID int64 `json:"permission_id"`
}

// RoleAssignment gives a user a role. The (user, role) pair is unique.
type RoleAssignment struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	RoleID int64  `json:"role_id"`
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	MiddleName *string
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.MiddleName == nil
}
