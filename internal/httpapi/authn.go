package httpapi

import (
	"errors"
	"net/http"

	"github.com/kozhinae/fastauth/internal/auth"
)

const authHeader = "Authorization"

// publicPaths take no credentials; everything else goes through withAuth.
var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/auth/register",
	"/auth/login",
}

// withAuth authenticates every non-public request and stashes the user and
// the raw token string in the context. OPTIONS never reaches this handler:
// CORS sits earlier in the chain and answers preflight with 204.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		rawHeader := r.Header.Get(authHeader)
		user, err := a.svc.Authenticate(r.Context(), rawHeader)
		if err != nil {
			respondAuthError(w, r, err)
			return
		}
		// Authenticate succeeded, so extraction cannot fail here.
		value, _ := auth.ExtractToken(rawHeader)
		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// respondAuthError writes the 401 for a failed authentication. The detail
// strings are part of the API contract.
func respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, "Token expired.")
	case errors.Is(err, auth.ErrUserInactive):
		writeError(w, r, http.StatusUnauthorized, "User inactive.")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "Invalid or expired token.")
	default:
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}

// currentUser returns the authenticated user; withAuth guarantees it is set
// on protected paths.
func currentUser(w http.ResponseWriter, r *http.Request) *auth.User {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil
	}
	return user
}

// requireStaff gates the admin surface.
func (a *API) requireStaff(w http.ResponseWriter, r *http.Request) *auth.User {
	user := currentUser(w, r)
	if user == nil {
		return nil
	}
	if !user.IsStaff {
		writeError(w, r, http.StatusForbidden, "Admin privileges required.")
		return nil
	}
	return user
}

// ensurePermission runs the grant check and writes the 403 on deny.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, resource, action string) *auth.User {
	user := currentUser(w, r)
	if user == nil {
		return nil
	}
	ok, err := a.svc.Authorize(r.Context(), user, resource, action)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "authorization error")
		return nil
	}
	if !ok {
		writeError(w, r, http.StatusForbidden, "Forbidden.")
		return nil
	}
	return user
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
