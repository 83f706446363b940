// Package httpapi is the HTTP surface of the service: session endpoints,
// the authentication gate and a handful of protected resource routes.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"opsboard.dev/internal/auth"
	"opsboard.dev/internal/obs"
)

// UserDirectory lists users inside one organization. Backed by the
// Postgres user store in production.
type UserDirectory interface {
	ListByOrg(ctx context.Context, orgID string) ([]*auth.User, error)
}

// ReadyProbe checks backing-store health for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	users      UserDirectory
	readyProbe ReadyProbe
	version    string
}

// New builds the route table. users may be nil when no directory backend
// is configured.
func New(svc *auth.Service, users UserDirectory, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       svc,
		users:      users,
		readyProbe: rp,
		version:    version,
	}

	// Credential endpoints are rate limited per client IP.
	a.mux.Handle("/v1/auth/login", RateLimit(http.HandlerFunc(a.handleAuthLogin), 10, 5))
	a.mux.Handle("/v1/auth/refresh", RateLimit(http.HandlerFunc(a.handleAuthRefresh), 20, 10))
	a.mux.HandleFunc("/v1/auth/logout", a.handleAuthLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleAuthMe)
	a.mux.HandleFunc("/v1/me", a.handleAuthMe)

	a.mux.HandleFunc("/v1/orgs/", a.handleOrgScoped)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "opsboard-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
