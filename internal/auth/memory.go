package auth

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

// Memory implements Store in process memory with the same conflict and
// not-found semantics as the PostgreSQL store. It backs tests and DSN-less
// demo runs; durability is explicitly not its job.
type Memory struct {
	mu sync.RWMutex

	users       map[string]*User      // id -> user
	usersByMail map[string]string     // email -> id (byte-wise, case-sensitive)
	tokens      map[string]*AuthToken // token string -> token
	tokensByID  map[string]*AuthToken

	roles       []Role
	resources   []Resource
	permissions []Permission
	grants      []Grant
	assignments []RoleAssignment
	nextID      int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*User),
		usersByMail: make(map[string]string),
		tokens:      make(map[string]*AuthToken),
		tokensByID:  make(map[string]*AuthToken),
	}
}

func (m *Memory) Users(context.Context) UserStore      { return (*memUsers)(m) }
func (m *Memory) Tokens(context.Context) TokenStore    { return (*memTokens)(m) }
func (m *Memory) Catalog(context.Context) CatalogStore { return (*memCatalog)(m) }

func (m *Memory) nextSerial() int64 {
	m.nextID++
	return m.nextID
}

// User store ---------------------------------------------------------------

type memUsers Memory

func (m *memUsers) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usersByMail[u.Email]; exists {
		return ErrConflict
	}
	cp := *u
	m.users[u.ID] = &cp
	m.usersByMail[u.Email] = u.ID
	return nil
}

func (m *memUsers) Find(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usersByMail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.MiddleName != nil {
		u.MiddleName = *upd.MiddleName
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *memUsers) Deactivate(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Token store --------------------------------------------------------------

type memTokens Memory

func (m *memTokens) Create(ctx context.Context, tok *AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tokens[tok.Token]; exists {
		return ErrConflict
	}
	cp := *tok
	m.tokens[tok.Token] = &cp
	m.tokensByID[tok.ID] = &cp
	return nil
}

func (m *memTokens) FindActive(ctx context.Context, token string) (*AuthToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.tokens[token]
	if !ok || !tok.IsActive {
		return nil, ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (m *memTokens) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokensByID[id]
	if !ok {
		return ErrNotFound
	}
	tok.IsActive = false
	return nil
}

func (m *memTokens) RevokeAllForUser(ctx context.Context, userID string) error {
	// Single critical section, so no token of the user stays valid while
	// others are already revoked.
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.tokensByID {
		if tok.UserID == userID {
			tok.IsActive = false
		}
	}
	return nil
}

// Catalog store ------------------------------------------------------------

type memCatalog Memory

func (m *memCatalog) CreateRole(ctx context.Context, name, description string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			return Role{}, ErrConflict
		}
	}
	role := Role{ID: (*Memory)(m).nextSerial(), Name: name, Description: description}
	m.roles = append(m.roles, role)
	return role, nil
}

func (m *memCatalog) CreateResource(ctx context.Context, name, description string) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.resources {
		if r.Name == name {
			return Resource{}, ErrConflict
		}
	}
	res := Resource{ID: (*Memory)(m).nextSerial(), Name: name, Description: description}
	m.resources = append(m.resources, res)
	return res, nil
}

func (m *memCatalog) CreatePermission(ctx context.Context, action, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.permissions {
		if p.Action == action {
			return Permission{}, ErrConflict
		}
	}
	perm := Permission{ID: (*Memory)(m).nextSerial(), Action: action, Description: description}
	m.permissions = append(m.permissions, perm)
	return perm, nil
}

func (m *memCatalog) CreateGrant(ctx context.Context, roleID, resourceID, permissionID int64) (Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.roleExists(roleID) || !m.resourceExists(resourceID) || !m.permissionExists(permissionID) {
		return Grant{}, ErrNotFound
	}
	for _, g := range m.grants {
		if g.RoleID == roleID && g.ResourceID == resourceID && g.PermissionID == permissionID {
			return Grant{}, ErrConflict
		}
	}
	grant := Grant{ID: (*Memory)(m).nextSerial(), RoleID: roleID, ResourceID: resourceID, PermissionID: permissionID}
	m.grants = append(m.grants, grant)
	return grant, nil
}

func (m *memCatalog) AssignRole(ctx context.Context, userID string, roleID int64) (RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return RoleAssignment{}, ErrNotFound
	}
	if !m.roleExists(roleID) {
		return RoleAssignment{}, ErrNotFound
	}
	for _, a := range m.assignments {
		if a.UserID == userID && a.RoleID == roleID {
			return RoleAssignment{}, ErrConflict
		}
	}
	assignment := RoleAssignment{ID: (*Memory)(m).nextSerial(), UserID: userID, RoleID: roleID}
	m.assignments = append(m.assignments, assignment)
	return assignment, nil
}

func (m *memCatalog) RoleIDsForUser(ctx context.Context, userID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for _, a := range m.assignments {
		if a.UserID == userID {
			ids = append(ids, a.RoleID)
		}
	}
	return ids, nil
}

func (m *memCatalog) HasGrant(ctx context.Context, roleIDs []int64, resourceName, action string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var resourceID, permissionID int64
	for _, r := range m.resources {
		if r.Name == resourceName {
			resourceID = r.ID
			break
		}
	}
	for _, p := range m.permissions {
		if p.Action == action {
			permissionID = p.ID
			break
		}
	}
	// No grant can exist for an unknown resource or action.
	if resourceID == 0 || permissionID == 0 {
		return false, nil
	}
	for _, g := range m.grants {
		if g.ResourceID != resourceID || g.PermissionID != permissionID {
			continue
		}
		for _, id := range roleIDs {
			if g.RoleID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memCatalog) roleExists(id int64) bool {
	for _, r := range m.roles {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (m *memCatalog) resourceExists(id int64) bool {
	for _, r := range m.resources {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (m *memCatalog) permissionExists(id int64) bool {
	for _, p := range m.permissions {
		if p.ID == id {
			return true
		}
	}
	return false
}
