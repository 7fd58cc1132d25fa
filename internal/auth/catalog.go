package auth

import (
	"context"
	"fmt"
	"strings"
)

// Catalog management operations. Input is trimmed and validated here; the
// store's unique constraints decide duplicates.

func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return s.store.Catalog(ctx).CreateRole(ctx, name, strings.TrimSpace(description))
}

func (s *Service) CreateResource(ctx context.Context, name, description string) (Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resource{}, fmt.Errorf("%w: resource name is required", ErrInvalidInput)
	}
	return s.store.Catalog(ctx).CreateResource(ctx, name, strings.TrimSpace(description))
}

func (s *Service) CreatePermission(ctx context.Context, action, description string) (Permission, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return Permission{}, fmt.Errorf("%w: permission action is required", ErrInvalidInput)
	}
	return s.store.Catalog(ctx).CreatePermission(ctx, action, strings.TrimSpace(description))
}

// CreateGrant records a (role, resource, permission) triple. Missing
// referents surface as ErrNotFound, duplicates as ErrConflict.
func (s *Service) CreateGrant(ctx context.Context, roleID, resourceID, permissionID int64) (Grant, error) {
	if roleID <= 0 || resourceID <= 0 || permissionID <= 0 {
		return Grant{}, fmt.Errorf("%w: role_id, resource_id and permission_id are required", ErrInvalidInput)
	}
	return s.store.Catalog(ctx).CreateGrant(ctx, roleID, resourceID, permissionID)
}

// AssignRole gives the user a role. Assigning the same role twice surfaces
// as ErrConflict.
func (s *Service) AssignRole(ctx context.Context, userID string, roleID int64) (RoleAssignment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || roleID <= 0 {
		return RoleAssignment{}, fmt.Errorf("%w: user_id and role_id are required", ErrInvalidInput)
	}
	return s.store.Catalog(ctx).AssignRole(ctx, userID, roleID)
}

// RolesOfUser returns the ids of every role assigned to the user.
func (s *Service) RolesOfUser(ctx context.Context, userID string) ([]int64, error) {
	return s.store.Catalog(ctx).RoleIDsForUser(ctx, userID)
}
