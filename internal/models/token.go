// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken binds an opaque token value to a user. Trusted is false
// while the second factor is still pending.
type SessionToken struct {
	ID         uuid.UUID `json:"id"`
	UserID     int64     `json:"user_id"`
	Value      string    `json:"-"`
	LastUsedAt time.Time `json:"last_used_at"`
	Trusted    bool      `json:"trusted"`
}

// ExpiredAt reports whether the token has been idle for longer than
// lifetime as of now.
func (t *SessionToken) ExpiredAt(now time.Time, lifetime time.Duration) bool {
	return t.LastUsedAt.Before(now.Add(-lifetime))
}
