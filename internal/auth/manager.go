// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"menudir/internal/models"
	"menudir/internal/security"
	"menudir/internal/store"
	"menudir/internal/twofactor"
)

const (
	// TokenLifetime is how long a token may stay idle before it expires.
	TokenLifetime = 2592000 * time.Second

	// tokenBytes is the entropy of a token value (hex-encoded to 32 chars).
	tokenBytes = 16

	maxTokenAttempts = 5
)

// Manager issues and resolves session tokens. The client keeps only the
// token value; every call looks the token up in the store.
type Manager struct {
	store    store.Manager
	now      func() time.Time
	newToken func() (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenGenerator replaces the random token value generator.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(m *Manager) { m.newToken = gen }
}

// NewManager creates a session manager backed by s.
func NewManager(s store.Manager, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		now:   time.Now,
		newToken: func() (string, error) {
			return security.RandomHex(tokenBytes)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession checks the password and issues a new token. The token is
// untrusted when the user has a verified second factor.
func (m *Manager) CreateSession(ctx context.Context, email, password string) (*models.User, *models.SessionToken, error) {
	user, err := m.store.Users().FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		CheckPassword(dummyHash(), password)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	tok, err := m.issueToken(ctx, user)
	if err != nil {
		if errors.Is(err, ErrTokenExhausted) {
			slog.Error("session token generation exhausted", "user_id", user.ID, "attempts", maxTokenAttempts)
		}
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return user, tok, nil
}

// issueToken inserts a token with a value no live token uses. A value
// that is already taken, seen either by the pre-check or by the unique
// index, is regenerated up to maxTokenAttempts times.
func (m *Manager) issueToken(ctx context.Context, user *models.User) (*models.SessionToken, error) {
	var tok *models.SessionToken
	err := m.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
			value, err := m.newToken()
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			taken, err := r.Tokens().Exists(ctx, value)
			if err != nil {
				return err
			}
			if taken {
				slog.Warn("session token collision", "attempt", attempt)
				continue
			}

			t := &models.SessionToken{
				ID:         uuid.New(),
				UserID:     user.ID,
				Value:      value,
				LastUsedAt: m.now(),
				Trusted:    !user.RequiresSecondFactor(),
			}
			err = r.Tokens().Create(ctx, t)
			if errors.Is(err, store.ErrTokenCollision) {
				slog.Warn("session token collision", "attempt", attempt)
				continue
			}
			if err != nil {
				return err
			}
			tok = t
			return nil
		}
		return ErrTokenExhausted
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// lookup returns the live token for value. An expired token is deleted
// and reported as ErrExpiredSession, as is an unknown value.
func (m *Manager) lookup(ctx context.Context, r store.Repositories, value string) (*models.SessionToken, error) {
	if value == "" {
		return nil, ErrExpiredSession
	}
	tok, err := r.Tokens().Find(ctx, value)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExpiredSession
	}
	if err != nil {
		return nil, err
	}
	if tok.ExpiredAt(m.now(), TokenLifetime) {
		if err := r.Tokens().Delete(ctx, value); err != nil {
			return nil, err
		}
		slog.Debug("expired session token removed", "user_id", tok.UserID)
		return nil, ErrExpiredSession
	}
	return tok, nil
}

// ResolveSession returns the user bound to the token value and refreshes
// its last use. It returns a nil user for an absent or expired token.
// An untrusted token yields ErrUntrustedSession unless allowUntrusted is
// set, and is not refreshed in that case.
func (m *Manager) ResolveSession(ctx context.Context, value string, allowUntrusted bool) (*models.User, error) {
	r := m.store
	tok, err := m.lookup(ctx, r, value)
	if errors.Is(err, ErrExpiredSession) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if !tok.Trusted && !allowUntrusted {
		return nil, ErrUntrustedSession
	}

	if err := r.Tokens().Touch(ctx, value, m.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	user, err := r.Users().FindByID(ctx, tok.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return user, nil
}

// UpgradeSession marks the token trusted when code matches the user's
// verified TOTP secret. On a wrong code the token stays untrusted.
func (m *Manager) UpgradeSession(ctx context.Context, value, code string) (*models.User, *models.SessionToken, error) {
	var (
		user    *models.User
		tok     *models.SessionToken
		expired bool
	)
	err := m.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		t, err := m.lookup(ctx, r, value)
		if errors.Is(err, ErrExpiredSession) {
			expired = true
			return nil
		}
		if err != nil {
			return err
		}

		u, err := r.Users().FindByID(ctx, t.UserID)
		if err != nil {
			return err
		}
		if u.TOTPState() != models.TOTPVerified {
			return twofactor.ErrNotProvisioned
		}
		if !twofactor.Check(*u.TOTPSecret, code, m.now()) {
			return twofactor.ErrInvalidCode
		}

		if err := r.Tokens().SetTrusted(ctx, value); err != nil {
			return err
		}
		if err := r.Tokens().Touch(ctx, value, m.now()); err != nil {
			return err
		}
		t.Trusted = true
		t.LastUsedAt = m.now()
		user, tok = u, t
		return nil
	})
	switch {
	case expired:
		return nil, nil, ErrExpiredSession
	case errors.Is(err, twofactor.ErrInvalidCode), errors.Is(err, twofactor.ErrNotProvisioned):
		return nil, nil, err
	case err != nil:
		return nil, nil, fmt.Errorf("upgrade session: %w", err)
	}
	return user, tok, nil
}

// DestroySession deletes the token. Unknown values are not an error.
func (m *Manager) DestroySession(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	if err := m.store.Tokens().Delete(ctx, value); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
