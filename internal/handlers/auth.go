// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"menudir/internal/auth"
	"menudir/internal/directory"
	"menudir/internal/middleware"
	"menudir/internal/models"
	"menudir/internal/render"
	"menudir/internal/session"
	"menudir/internal/twofactor"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	manager   *auth.Manager
	twoFactor *twofactor.Flow
	accounts  *directory.Service
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, manager *auth.Manager, twoFactor *twofactor.Flow, accounts *directory.Service) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		manager:   manager,
		twoFactor: twoFactor,
		accounts:  accounts,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/restaurant/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Log in",
		Data:  map[string]any{},
	})
}

// LoginSubmit checks the password and binds a fresh token to a fresh
// client session. Users with a verified second factor continue to the
// code prompt.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawEmail := r.FormValue("email")
	email := directory.NormalizeEmail(rawEmail)
	if email == "" {
		email = rawEmail
	}

	user, tok, err := a.manager.CreateSession(ctx, email, r.FormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Info("login failed", "request_id", middleware.RequestIDFromCtx(ctx))
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "login", &render.PageData{
			Title: "Log in",
			Data: map[string]any{
				"Error": "Invalid email or password.",
				"Email": rawEmail,
			},
		})
		return
	}
	if err != nil {
		serverError(w, r, "create session failed", err)
		return
	}

	// A previous login on this browser is replaced, not stacked.
	if old := middleware.TokenFromCtx(ctx); old != "" {
		if err := a.manager.DestroySession(ctx, old); err != nil {
			slog.Warn("destroy previous session failed", "error", err)
		}
	}

	if err := a.sessions.Renew(ctx, w, r, &session.Data{Token: tok.Value}); err != nil {
		serverError(w, r, "session renew failed", err)
		return
	}

	slog.Info("login", "user_id", user.ID, "trusted", tok.Trusted)
	if !tok.Trusted {
		http.Redirect(w, r, "/2fa/verify/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/restaurant/", http.StatusSeeOther)
}

// SignupPage renders the signup form.
func (a *Auth) SignupPage(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "signup", &render.PageData{Title: "Sign up"})
}

// SignupSubmit creates an ordinary account and sends the visitor to the
// login page.
func (a *Auth) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := a.accounts.Signup(r.Context(), directory.SignupInput{
		Name:                 r.FormValue("name"),
		Email:                r.FormValue("email"),
		Password:             r.FormValue("password"),
		PasswordVerification: r.FormValue("password_verification"),
	})
	switch {
	case errors.Is(err, directory.ErrPasswordMismatch):
		flashRedirect(w, r, a.sessions, flashError, "Passwords do not match", "/signup/")
	case errors.Is(err, directory.ErrAccountExists):
		flashRedirect(w, r, a.sessions, flashError, "Username or email address already registered", "/signup/")
	case errors.Is(err, directory.ErrInvalidInput):
		flashRedirect(w, r, a.sessions, flashError, inputProblem(err), "/signup/")
	case err != nil:
		serverError(w, r, "signup failed", err)
	default:
		flashRedirect(w, r, a.sessions, flashSuccess, "Account created", "/login/")
	}
}

// LogoutPage renders the logout confirmation.
func (a *Auth) LogoutPage(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "logout", &render.PageData{Title: "Log out"})
}

// LogoutSubmit deletes the token and the client session.
func (a *Auth) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	a.endSession(w, r, middleware.TokenFromCtx(r.Context()))
	http.Redirect(w, r, "/restaurant/", http.StatusSeeOther)
}

// TwoFASetupPage stores a fresh secret when none exists and shows the
// enrollment QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	a.renderSetup(w, r, http.StatusOK, "")
}

func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	user := middleware.UserFromCtx(r.Context())

	u, err := a.twoFactor.Provision(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, "provision totp failed", err)
		return
	}
	if u.TOTPState() == models.TOTPVerified {
		flashRedirect(w, r, a.sessions, flashError, "Two-factor authentication is already enabled", "/settings/")
		return
	}

	p, err := a.twoFactor.ProvisioningURI(u)
	if err != nil {
		serverError(w, r, "provisioning uri failed", err)
		return
	}

	data := map[string]any{
		"QRCode": template.URL("data:image/png;base64," + p.QRCode),
		"Secret": p.Secret,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.PageStatus(w, r, status, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data:  data,
	})
}

// TwoFASetupSubmit confirms enrollment with a code. A wrong code
// discards the pending secret, so the page shows a new one.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	_, err := a.twoFactor.Verify(r.Context(), user.ID, normalizeCode(r.FormValue("code")))
	switch {
	case errors.Is(err, twofactor.ErrInvalidCode):
		a.renderSetup(w, r, http.StatusUnprocessableEntity, "Invalid code. Scan the new QR code and try again.")
	case errors.Is(err, twofactor.ErrNotProvisioned):
		http.Redirect(w, r, "/2fa/setup/", http.StatusSeeOther)
	case err != nil:
		serverError(w, r, "verify totp failed", err)
	default:
		slog.Info("two-factor enabled", "user_id", user.ID)
		flashRedirect(w, r, a.sessions, flashSuccess, "Two-factor authentication enabled", "/settings/")
	}
}

// TwoFAVerifyPage renders the code prompt for a half-authenticated session.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	if !a.awaitingCode(w, r) {
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
		Data:  map[string]any{},
	})
}

// TwoFAVerifySubmit upgrades the current token to trusted. Any failure
// ends the session.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	if !a.awaitingCode(w, r) {
		return
	}
	ctx := r.Context()
	tok := middleware.TokenFromCtx(ctx)

	user, _, err := a.manager.UpgradeSession(ctx, tok, normalizeCode(r.FormValue("code")))
	switch {
	case errors.Is(err, twofactor.ErrInvalidCode):
		// A wrong code costs the whole login.
		slog.Info("second factor rejected", "request_id", middleware.RequestIDFromCtx(ctx))
		a.endSession(w, r, tok)
		flashRedirect(w, r, a.sessions, flashError, "Invalid code. Please log in again.", "/login/")
	case errors.Is(err, auth.ErrExpiredSession), errors.Is(err, twofactor.ErrNotProvisioned):
		a.endSession(w, r, tok)
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
	case err != nil:
		serverError(w, r, "upgrade session failed", err)
	default:
		if err := a.sessions.Renew(ctx, w, r, &session.Data{Token: tok}); err != nil {
			serverError(w, r, "session renew failed", err)
			return
		}
		slog.Info("second factor accepted", "user_id", user.ID)
		http.Redirect(w, r, "/restaurant/", http.StatusSeeOther)
	}
}

// endSession deletes the token and the client session.
func (a *Auth) endSession(w http.ResponseWriter, r *http.Request, tok string) {
	if err := a.manager.DestroySession(r.Context(), tok); err != nil {
		slog.Error("destroy session failed", "error", err)
	}
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
}

// awaitingCode redirects away unless the request holds a live untrusted
// token, and refreshes that token.
func (a *Auth) awaitingCode(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	if middleware.UserFromCtx(ctx) != nil {
		http.Redirect(w, r, "/restaurant/", http.StatusSeeOther)
		return false
	}
	if !middleware.PendingSecondFactor(ctx) {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return false
	}
	// Resolving with untrusted tokens allowed refreshes the pending token.
	tok := middleware.TokenFromCtx(ctx)
	user, err := a.manager.ResolveSession(ctx, tok, true)
	if err != nil {
		serverError(w, r, "resolve pending session failed", err)
		return false
	}
	if user == nil {
		a.endSession(w, r, tok)
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return false
	}
	return true
}

// TwoFADisable removes the second factor of the current user.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if err := a.twoFactor.Disable(r.Context(), user.ID); err != nil {
		serverError(w, r, "disable totp failed", err)
		return
	}
	slog.Info("two-factor disabled", "user_id", user.ID)
	flashRedirect(w, r, a.sessions, flashSuccess, "Two-factor authentication disabled", "/settings/")
}

// Settings shows the account and its second-factor state.
func (a *Auth) Settings(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	a.renderer.Page(w, r, "settings", &render.PageData{
		Title: "Settings",
		Data:  map[string]any{"TwoFactorEnabled": user.RequiresSecondFactor()},
	})
}

// inputProblem turns a wrapped ErrInvalidInput into a sentence.
func inputProblem(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, directory.ErrInvalidInput.Error()+": "); i >= 0 {
		msg = msg[i+len(directory.ErrInvalidInput.Error())+2:]
	}
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
