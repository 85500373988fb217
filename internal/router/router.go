// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// restaurant directory.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"menudir/internal/handlers"
	"menudir/internal/middleware"
	"menudir/internal/render"
	"menudir/internal/session"
	"menudir/web"
)

// Deps carries everything the route table needs.
type Deps struct {
	Sessions      *session.Store
	Resolver      middleware.SessionResolver
	Limiter       *middleware.RateLimiter
	Renderer      *render.Renderer
	Auth          *handlers.Auth
	Directory     *handlers.Directory
	API           *handlers.API
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and static assets: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookies))
		r.Use(middleware.LoadUser(d.Sessions, d.Resolver))

		limited := r.With(d.Limiter.Middleware)

		// Public pages.
		r.Get("/", d.Directory.Restaurants)
		r.Get("/restaurant/", d.Directory.Restaurants)
		r.Get("/restaurant/{restaurant_id}/", d.Directory.Menu)
		r.Get("/restaurant/{restaurant_id}/menu/", d.Directory.Menu)

		// JSON dumps.
		r.Get("/restaurant/JSON", d.API.Restaurants)
		r.Get("/restaurant/{restaurant_id}/menu/JSON", d.API.Menu)
		r.Get("/restaurant/{restaurant_id}/menu/{menu_id}/JSON", d.API.MenuItem)

		// Account pages, reachable without a trusted session.
		r.Get("/login/", d.Auth.LoginPage)
		limited.Post("/login/", d.Auth.LoginSubmit)
		r.Get("/signup/", d.Auth.SignupPage)
		limited.Post("/signup/", d.Auth.SignupSubmit)
		r.Get("/logout/", d.Auth.LogoutPage)
		r.Post("/logout/", d.Auth.LogoutSubmit)
		r.Get("/2fa/verify/", d.Auth.TwoFAVerifyPage)
		limited.Post("/2fa/verify/", d.Auth.TwoFAVerifySubmit)

		// Trusted session required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/2fa/setup/", d.Auth.TwoFASetupPage)
			r.With(d.Limiter.Middleware).Post("/2fa/setup/", d.Auth.TwoFASetupSubmit)
			r.Post("/2fa/disable/", d.Auth.TwoFADisable)
			r.Get("/settings/", d.Auth.Settings)

			r.Get("/restaurant/new/", d.Directory.NewRestaurantPage)
			r.Post("/restaurant/new/", d.Directory.NewRestaurantSubmit)

			r.Get("/restaurant/{restaurant_id}/edit/", d.Directory.EditRestaurantPage)
			r.Post("/restaurant/{restaurant_id}/edit/", d.Directory.EditRestaurantSubmit)
			r.Get("/restaurant/{restaurant_id}/delete/", d.Directory.DeleteRestaurantPage)
			r.Post("/restaurant/{restaurant_id}/delete/", d.Directory.DeleteRestaurantSubmit)

			r.Get("/restaurant/{restaurant_id}/comment/new/", d.Directory.NewCommentPage)
			r.Post("/restaurant/{restaurant_id}/comment/new/", d.Directory.NewCommentSubmit)

			r.Get("/restaurant/{restaurant_id}/menu/new/", d.Directory.NewMenuItemPage)
			r.Post("/restaurant/{restaurant_id}/menu/new/", d.Directory.NewMenuItemSubmit)
			r.Get("/restaurant/{restaurant_id}/menu/{menu_id}/edit", d.Directory.EditMenuItemPage)
			r.Post("/restaurant/{restaurant_id}/menu/{menu_id}/edit", d.Directory.EditMenuItemSubmit)
			r.Get("/restaurant/{restaurant_id}/menu/{menu_id}/delete", d.Directory.DeleteMenuItemPage)
			r.Post("/restaurant/{restaurant_id}/menu/{menu_id}/delete", d.Directory.DeleteMenuItemSubmit)
		})

		r.NotFound(d.Renderer.NotFound)
	})

	return r
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: static assets missing: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
