package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kozhinae/fastauth/internal/auth"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	MiddleName      string `json:"middle_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.Register(r.Context(), auth.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		MiddleName:      req.MiddleName,
	})
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			writeError(w, r, http.StatusConflict, "Email already registered.")
			return
		}
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tok, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	if err := a.svc.Logout(r.Context(), token); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleProfileGet(w, r)
	case http.MethodPatch:
		a.handleProfilePatch(w, r)
	case http.MethodDelete:
		a.handleProfileDelete(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// profileResponse is the user record plus the ids of the roles currently
// assigned to it.
type profileResponse struct {
	*auth.User
	Roles []int64 `json:"roles"`
}

func (a *API) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	roles, err := a.svc.RolesOfUser(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if roles == nil {
		roles = []int64{}
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user, Roles: roles})
}

// handleProfilePatch applies the allow-listed profile fields. Unknown keys
// in the body are silently ignored rather than rejected, so clients can send
// a full object back.
func (a *API) handleProfilePatch(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	var raw map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&raw); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	upd := auth.ProfileUpdate{
		FirstName:  stringField(raw, "first_name"),
		LastName:   stringField(raw, "last_name"),
		MiddleName: stringField(raw, "middle_name"),
	}
	updated, err := a.svc.UpdateProfile(r.Context(), user.ID, upd)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func stringField(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// handleProfileDelete deactivates the account and revokes every token. The
// row stays for audit purposes.
func (a *API) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	if err := a.svc.SoftDeleteUser(r.Context(), user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
