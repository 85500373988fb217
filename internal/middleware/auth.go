// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"menudir/internal/auth"
	"menudir/internal/models"
	"menudir/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the client session data.
	SessionKey contextKey = "session"

	// UserKey is the context key for the resolved, trusted user.
	UserKey contextKey = "user"

	// PendingKey marks a request whose token still awaits its second factor.
	PendingKey contextKey = "pending_second_factor"
)

// SessionResolver turns a token value into a user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, value string, allowUntrusted bool) (*models.User, error)
}

// LoadUser reads the client session and resolves its token to a trusted
// user. An untrusted token sets the pending flag instead. This middleware
// does NOT enforce authentication.
func LoadUser(sessions *session.Store, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			data, err := sessions.Get(ctx, r)
			if err != nil {
				// Log but don't block; treat as anonymous.
				slog.Warn("load session failed", "error", err, "request_id", RequestIDFromCtx(ctx))
				next.ServeHTTP(w, r)
				return
			}
			if data == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx = context.WithValue(ctx, SessionKey, data)

			if data.Token != "" {
				user, err := resolver.ResolveSession(ctx, data.Token, false)
				switch {
				case errors.Is(err, auth.ErrUntrustedSession):
					ctx = context.WithValue(ctx, PendingKey, true)
				case err != nil:
					slog.Error("resolve session failed", "error", err, "request_id", RequestIDFromCtx(ctx))
				case user != nil:
					ctx = context.WithValue(ctx, UserKey, user)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser redirects anonymous visitors to the login page and
// half-authenticated ones to the second-factor step.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if PendingSecondFactor(r.Context()) {
			http.Redirect(w, r, "/2fa/verify/", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
	})
}

// UserFromCtx returns the trusted user, or nil for anonymous requests.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserKey).(*models.User)
	return u
}

// PendingSecondFactor reports whether the request carries a token that has
// passed the password step only.
func PendingSecondFactor(ctx context.Context) bool {
	pending, _ := ctx.Value(PendingKey).(bool)
	return pending
}

// SessionFromCtx extracts the client session data from the request context.
// Returns nil if the request carries no session.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// TokenFromCtx returns the token value held by the client session.
func TokenFromCtx(ctx context.Context) string {
	if data := SessionFromCtx(ctx); data != nil {
		return data.Token
	}
	return ""
}
