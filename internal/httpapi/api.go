package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/kozhinae/fastauth/internal/auth"
	"github.com/kozhinae/fastauth/internal/obs"
)

// ReadyProbe reports readiness (a DB ping when one is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth service.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	readyProbe ReadyProbe
	version    string

	// Tunables applied when Handler is built.
	RateBurst    int
	RatePerSec   int
	MaxBodyLimit int64

	articlesMu sync.Mutex
	articles   []article
}

func New(svc *auth.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		readyProbe: rp,
		version:    version,

		RateBurst:    20,
		RatePerSec:   10,
		MaxBodyLimit: 1 << 20,

		articles: demoArticles(),
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	a.mux.HandleFunc("/auth/register", a.handleRegister)
	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/auth/profile", a.handleProfile)

	a.mux.HandleFunc("/admin/roles", a.handleRoles)
	a.mux.HandleFunc("/admin/resources", a.handleResources)
	a.mux.HandleFunc("/admin/permissions", a.handlePermissions)
	a.mux.HandleFunc("/admin/role-permissions", a.handleRolePermissions)
	a.mux.HandleFunc("/admin/assign-role", a.handleAssignRole)

	a.mux.HandleFunc("/articles/", a.handleArticles)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", a.Info)

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.MaxBodyLimit)
	h = RateLimit(h, a.RateBurst, a.RatePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fastauth-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "fastauth-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
