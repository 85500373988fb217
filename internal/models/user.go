// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

// Permission represents a user's permission level in the directory.
type Permission int

const (
	// PermissionOrdinary is the level of every freshly signed-up user.
	PermissionOrdinary Permission = 0
	// PermissionOwner is held exactly while the user owns a restaurant.
	PermissionOwner Permission = 1
)

// TOTPState is the second-factor enrollment state of a user.
type TOTPState int

const (
	TOTPNone     TOTPState = iota // no secret stored
	TOTPPending                   // secret generated, not yet confirmed
	TOTPVerified                  // secret confirmed with a valid code
)

// String returns the lowercase state name used in logs.
func (s TOTPState) String() string {
	switch s {
	case TOTPPending:
		return "pending"
	case TOTPVerified:
		return "verified"
	default:
		return "none"
	}
}

// User represents a directory account with authentication and 2FA fields.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	TOTPSecret   *string    `json:"-"` // Nullable; set during 2FA setup
	TOTPVerified bool       `json:"totp_verified"`
	RestaurantID *int64     `json:"restaurant_id"`
	Permission   Permission `json:"permission"`
}

// TOTPState derives the enrollment state from the secret and the
// verification flag. A verified flag without a secret counts as none.
func (u *User) TOTPState() TOTPState {
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return TOTPNone
	}
	if !u.TOTPVerified {
		return TOTPPending
	}
	return TOTPVerified
}

// RequiresSecondFactor reports whether a password login must be followed
// by a TOTP code before the session is trusted.
func (u *User) RequiresSecondFactor() bool {
	return u.TOTPState() == TOTPVerified
}

// OwnsRestaurant reports whether the user owns the restaurant with the given id.
func (u *User) OwnsRestaurant(id int64) bool {
	return u.RestaurantID != nil && *u.RestaurantID == id
}
