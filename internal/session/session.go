// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides the Valkey-backed client session. A random
// cookie id addresses a small JSON record holding the current auth
// token value and pending flash messages. Trust decisions are made by
// the auth package, never here.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"menudir/internal/security"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "md_session"

	// DefaultTTL matches the idle lifetime of auth tokens.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Type    string `json:"type"` // "success", "error", "info"
	Message string `json:"message"`
}

// Data holds the session payload stored in Valkey.
type Data struct {
	Token     string    `json:"token,omitempty"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks the cookie Secure and should be set behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Get retrieves session data using the id from the request cookie.
// Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id := cookieID(r)
	if id == "" {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Save writes data under the id from the request cookie. When the
// request carries no live session a new id is issued.
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, r *http.Request, data *Data) error {
	id := cookieID(r)
	if id != "" {
		n, err := s.client.Exists(ctx, keyPrefix+id).Result()
		if err != nil {
			return fmt.Errorf("session exists: %w", err)
		}
		if n == 0 {
			id = ""
		}
	}
	if id == "" {
		return s.create(ctx, w, data)
	}
	return s.write(ctx, id, data)
}

// Renew stores data under a fresh id and drops the old one. Used when
// the token changes so a session id is never carried across a login.
func (s *Store) Renew(ctx context.Context, w http.ResponseWriter, r *http.Request, data *Data) error {
	if id := cookieID(r); id != "" {
		if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
			return fmt.Errorf("session renew: %w", err)
		}
	}
	return s.create(ctx, w, data)
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := cookieID(r)
	if id == "" {
		return nil // No cookie, nothing to destroy
	}

	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
	return nil
}

// AddFlash queues a notice for the next page.
func (s *Store) AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, f Flash) error {
	data, err := s.Get(ctx, r)
	if err != nil {
		return err
	}
	if data == nil {
		data = &Data{}
	}
	data.Flashes = append(data.Flashes, f)
	return s.Save(ctx, w, r, data)
}

// PopFlashes returns and clears the queued notices.
func (s *Store) PopFlashes(ctx context.Context, w http.ResponseWriter, r *http.Request) ([]Flash, error) {
	data, err := s.Get(ctx, r)
	if err != nil || data == nil || len(data.Flashes) == 0 {
		return nil, err
	}
	flashes := data.Flashes
	data.Flashes = nil
	if err := s.write(ctx, cookieID(r), data); err != nil {
		return nil, err
	}
	return flashes, nil
}

func (s *Store) create(ctx context.Context, w http.ResponseWriter, data *Data) error {
	id, err := security.RandomHex(idLength)
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	data.CreatedAt = time.Now()
	if err := s.write(ctx, id, data); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return nil
}

func (s *Store) write(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

func cookieID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
