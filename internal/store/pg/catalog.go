package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kozhinae/fastauth/internal/auth"
)

type catalogStore struct{ db *sql.DB }

func (s *catalogStore) CreateRole(ctx context.Context, name, description string) (auth.Role, error) {
	var (
		role auth.Role
		desc sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		insert into roles (name, description)
		values ($1, $2)
		returning id, name, description
	`, name, nullIfEmpty(description))
	if err := row.Scan(&role.ID, &role.Name, &desc); err != nil {
		return auth.Role{}, translateConstraint(err)
	}
	role.Description = desc.String
	return role, nil
}

func (s *catalogStore) CreateResource(ctx context.Context, name, description string) (auth.Resource, error) {
	var (
		res  auth.Resource
		desc sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		insert into resources (name, description)
		values ($1, $2)
		returning id, name, description
	`, name, nullIfEmpty(description))
	if err := row.Scan(&res.ID, &res.Name, &desc); err != nil {
		return auth.Resource{}, translateConstraint(err)
	}
	res.Description = desc.String
	return res, nil
}

func (s *catalogStore) CreatePermission(ctx context.Context, action, description string) (auth.Permission, error) {
	var (
		perm auth.Permission
		desc sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		insert into permissions (action, description)
		values ($1, $2)
		returning id, action, description
	`, action, nullIfEmpty(description))
	if err := row.Scan(&perm.ID, &perm.Action, &desc); err != nil {
		return auth.Permission{}, translateConstraint(err)
	}
	perm.Description = desc.String
	return perm, nil
}

func (s *catalogStore) CreateGrant(ctx context.Context, roleID, resourceID, permissionID int64) (auth.Grant, error) {
	var grant auth.Grant
	row := s.db.QueryRowContext(ctx, `
		insert into role_permissions (role_id, resource_id, permission_id)
		values ($1, $2, $3)
		returning id, role_id, resource_id, permission_id
	`, roleID, resourceID, permissionID)
	if err := row.Scan(&grant.ID, &grant.RoleID, &grant.ResourceID, &grant.PermissionID); err != nil {
		return auth.Grant{}, translateConstraint(err)
	}
	return grant, nil
}

func (s *catalogStore) AssignRole(ctx context.Context, userID string, roleID int64) (auth.RoleAssignment, error) {
	var assignment auth.RoleAssignment
	row := s.db.QueryRowContext(ctx, `
		insert into user_roles (user_id, role_id)
		values ($1, $2)
		returning id, user_id, role_id
	`, userID, roleID)
	if err := row.Scan(&assignment.ID, &assignment.UserID, &assignment.RoleID); err != nil {
		return auth.RoleAssignment{}, translateConstraint(err)
	}
	return assignment, nil
}

func (s *catalogStore) RoleIDsForUser(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`select role_id from user_roles where user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *catalogStore) HasGrant(ctx context.Context, roleIDs []int64, resourceName, action string) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}

	// Resolve the names first; an unknown resource or action short-circuits
	// to false because no grant can reference it.
	var resourceID int64
	err := s.db.QueryRowContext(ctx,
		`select id from resources where name = $1`, resourceName).Scan(&resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var permissionID int64
	err = s.db.QueryRowContext(ctx,
		`select id from permissions where action = $1`, action).Scan(&permissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	args := []any{resourceID, permissionID}
	placeholders := make([]string, 0, len(roleIDs))
	for i, id := range roleIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		select exists (
			select 1 from role_permissions
			where resource_id = $1 and permission_id = $2 and role_id in (%s)
		)
	`, strings.Join(placeholders, ", "))

	var allowed bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&allowed); err != nil {
		return false, err
	}
	return allowed, nil
}
