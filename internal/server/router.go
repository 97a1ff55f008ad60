// Package server assembles the HTTP routers for the platform services. All
// routes sit behind the filter dispatcher, so route registration here adds a
// handler but never an authentication decision; that lives in the endpoint
// descriptors.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accounthandler "dinehub/backend/internal/account/handler"
	profilehandler "dinehub/backend/internal/profile/handler"
	"dinehub/backend/internal/server/filters"
	sessionhandler "dinehub/backend/internal/session/handler"
)

// Pinger reports storage liveness for the health endpoint (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AuthRouterDeps holds the handlers and middleware for the auth service router.
type AuthRouterDeps struct {
	Dispatcher *filters.Dispatcher
	Auth       *accounthandler.HTTP
	Sessions   *sessionhandler.HTTP
	DB         Pinger
}

// NewAuthRouter returns the auth service's router.
//
// Route → handler mapping:
//   - /api/v1/auth/*     → internal/account/handler
//   - /api/v1/sessions/* → internal/session/handler
//   - /healthz           → storage ping
func NewAuthRouter(d AuthRouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(d.Dispatcher.Middleware)

	r.Get("/healthz", healthz(d.DB))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/refresh", d.Auth.Refresh)
			r.Post("/logout", d.Auth.Logout)
			r.Post("/logout-all", d.Auth.LogoutAll)
			r.Delete("/account", d.Auth.Delete)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", d.Sessions.List)
			r.Get("/{sessionID}/validate", d.Sessions.Validate)
			r.Delete("/{sessionID}", d.Sessions.Revoke)
		})
	})
	return r
}

// ProfileRouterDeps holds the handlers and middleware for the profile service router.
type ProfileRouterDeps struct {
	Dispatcher *filters.Dispatcher
	Profiles   *profilehandler.HTTP
	DB         Pinger
}

// NewProfileRouter returns the profile service's router.
func NewProfileRouter(d ProfileRouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(d.Dispatcher.Middleware)

	r.Get("/healthz", healthz(d.DB))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profiles/me", d.Profiles.Me)
	})
	return r
}

// healthz answers liveness probes. When a Pinger is wired, storage must
// answer within two seconds for the service to report healthy.
func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
