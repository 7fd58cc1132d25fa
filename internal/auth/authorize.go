package auth

import "context"

// Authorize decides whether the user may perform action on the named
// resource. Staff accounts bypass every grant check. The decision reads
// current catalog state on every call; there is no cache, so grant and
// assignment changes take effect immediately. A non-nil error means the
// store failed and the caller must not treat the result as a deny.
func (s *Service) Authorize(ctx context.Context, user *User, resourceName, action string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsStaff {
		return true, nil
	}
	catalog := s.store.Catalog(ctx)
	roleIDs, err := catalog.RoleIDsForUser(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if len(roleIDs) == 0 {
		return false, nil
	}
	return catalog.HasGrant(ctx, roleIDs, resourceName, action)
}
