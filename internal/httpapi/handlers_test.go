package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kozhinae/fastauth/internal/auth"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

type testEnv struct {
	*apiClient
	svc   *auth.Service
	store *auth.Memory
}

func newTestAPI(t *testing.T) *testEnv {
	t.Helper()

	store := auth.NewMemory()
	svc, err := auth.NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	api := New(svc, ReadyProbe{}, "test")
	api.RateBurst = 100
	api.RatePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{
		apiClient: &apiClient{
			baseURL: srv.URL,
			client:  srv.Client(),
			t:       t,
		},
		svc:   svc,
		store: store,
	}
}

// createStaff seeds a staff account directly in the store, the same way the
// bootstrap command does.
func (e *testEnv) createStaff(email, password string) *auth.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.Users(context.Background()).Create(context.Background(), user); err != nil {
		e.t.Fatalf("create staff: %v", err)
	}
	return user
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	resp := c.post("/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.Token
}

func tokenHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Token " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	api := newTestAPI(t)

	// Register.
	resp := api.post("/auth/register", map[string]any{
		"email":            "ada@example.com",
		"password":         "s3cret",
		"password_confirm": "s3cret",
		"first_name":       "Ada",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	if created["email"] != "ada@example.com" {
		t.Fatalf("unexpected email: %v", created["email"])
	}
	if _, leaked := created["password_hash"]; leaked {
		t.Fatal("password hash leaked in response")
	}

	// Duplicate email.
	resp = api.post("/auth/register", map[string]any{
		"email":            "ada@example.com",
		"password":         "other",
		"password_confirm": "other",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	errBody := decode[map[string]any](t, resp)
	if errBody["error"] != "Email already registered." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}

	// Login, read and update profile.
	token := api.login("ada@example.com", "s3cret")

	resp = api.get("/auth/profile", tokenHeader(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected profile status: %d", resp.StatusCode)
	}
	profile := decode[map[string]any](t, resp)
	if profile["first_name"] != "Ada" {
		t.Fatalf("unexpected profile: %v", profile)
	}
	// A fresh account has no roles but the field is always present.
	roles, ok := profile["roles"].([]any)
	if !ok || len(roles) != 0 {
		t.Fatalf("unexpected roles in profile: %v", profile["roles"])
	}

	// Unknown keys in the patch body are ignored, not rejected.
	resp = api.do(http.MethodPatch, "/auth/profile", map[string]any{
		"last_name": "Lovelace",
		"email":     "hax@example.com",
		"is_staff":  true,
	}, tokenHeader(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected patch status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["last_name"] != "Lovelace" || updated["first_name"] != "Ada" {
		t.Fatalf("unexpected updated profile: %v", updated)
	}
	if updated["email"] != "ada@example.com" || updated["is_staff"] != false {
		t.Fatalf("non-allow-listed fields applied: %v", updated)
	}

	// Logout kills the session.
	resp = api.post("/auth/logout", nil, tokenHeader(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected logout status: %d", resp.StatusCode)
	}

	resp = api.get("/auth/profile", tokenHeader(token))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
	errBody = decode[map[string]any](t, resp)
	if errBody["error"] != "Invalid or expired token." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post("/auth/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "whatever",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	errBody := decode[map[string]any](t, resp)
	if errBody["error"] != "Invalid credentials." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}
}

func TestProtectedPathsRequireCredentials(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/auth/profile", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") != "Token" {
		t.Fatalf("expected WWW-Authenticate: Token, got %q", resp.Header.Get("WWW-Authenticate"))
	}
	errBody := decode[map[string]any](t, resp)
	if errBody["error"] != "Authentication credentials were not provided." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}

	// A Bearer header is not our scheme.
	resp = api.get("/auth/profile", map[string]string{"Authorization": "Bearer sometoken"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for Bearer scheme, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminEndpointsRequireStaff(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/auth/register", map[string]any{
		"email":            "bob@example.com",
		"password":         "s3cret",
		"password_confirm": "s3cret",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}
	token := api.login("bob@example.com", "s3cret")

	resp = api.post("/admin/roles", map[string]any{"name": "editor"}, tokenHeader(token))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	errBody := decode[map[string]any](t, resp)
	if errBody["error"] != "Admin privileges required." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}
}

func TestCatalogAndAuthorizationFlow(t *testing.T) {
	api := newTestAPI(t)
	api.createStaff("admin@example.com", "adminpass")
	staffToken := api.login("admin@example.com", "adminpass")
	staffHeader := tokenHeader(staffToken)

	// Build the catalog: viewer role, article resource, read permission.
	resp := api.post("/admin/roles", map[string]any{"name": "viewer"}, staffHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create role: %d", resp.StatusCode)
	}
	role := decode[auth.Role](t, resp)

	resp = api.post("/admin/resources", map[string]any{"name": "article"}, staffHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create resource: %d", resp.StatusCode)
	}
	resource := decode[auth.Resource](t, resp)

	resp = api.post("/admin/permissions", map[string]any{"action": "read"}, staffHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create permission: %d", resp.StatusCode)
	}
	perm := decode[auth.Permission](t, resp)

	resp = api.post("/admin/role-permissions", map[string]any{
		"role_id":       role.ID,
		"resource_id":   resource.ID,
		"permission_id": perm.ID,
	}, staffHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create grant: %d", resp.StatusCode)
	}

	// Register a regular user and give them the viewer role.
	resp = api.post("/auth/register", map[string]any{
		"email":            "bob@example.com",
		"password":         "s3cret",
		"password_confirm": "s3cret",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}
	bob := decode[map[string]any](t, resp)

	resp = api.post("/admin/assign-role", map[string]any{
		"user_id": bob["id"],
		"role_id": role.ID,
	}, staffHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign role: %d", resp.StatusCode)
	}

	bobToken := api.login("bob@example.com", "s3cret")

	// The assignment shows up in the profile.
	resp = api.get("/auth/profile", tokenHeader(bobToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: %d", resp.StatusCode)
	}
	bobProfile := decode[map[string]any](t, resp)
	bobRoles, _ := bobProfile["roles"].([]any)
	if len(bobRoles) != 1 || bobRoles[0] != float64(role.ID) {
		t.Fatalf("unexpected roles: %v", bobProfile["roles"])
	}

	// Viewer can read but not update.
	resp = api.get("/articles/", tokenHeader(bobToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("article list: %d", resp.StatusCode)
	}
	listing := decode[map[string]any](t, resp)
	if listing["articles"] == nil {
		t.Fatal("expected articles in listing")
	}

	resp = api.post("/articles/1/update", map[string]any{"title": "hack"}, tokenHeader(bobToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on update, got %d", resp.StatusCode)
	}
	errBody := decode[map[string]any](t, resp)
	if errBody["error"] != "Forbidden." {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}

	// Staff bypasses the grant check entirely.
	resp = api.post("/articles/1/update", map[string]any{"title": "edited"}, staffHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff update: %d", resp.StatusCode)
	}
	result := decode[map[string]any](t, resp)
	if result["updated_by"] != "admin@example.com" {
		t.Fatalf("unexpected updated_by: %v", result["updated_by"])
	}
}

func TestHealthAndInfoArePublic(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/"} {
		resp := api.get(path, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	// Unknown paths are not public, so the auth gate answers first.
	resp := api.get("/unknown-path", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPreflightBypassesAuth(t *testing.T) {
	api := newTestAPI(t)

	// CORS answers OPTIONS before the auth gate runs, even on protected paths.
	resp := api.do(http.MethodOptions, "/auth/profile", nil, map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPatch,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("expected CORS method header on preflight")
	}
}
