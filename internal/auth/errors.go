// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth issues, resolves and upgrades session tokens and decides
// which mutations a resolved user may perform.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. Callers must not reveal which of the two it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrExpiredSession is returned when a token is unknown or has been
	// idle longer than TokenLifetime.
	ErrExpiredSession = errors.New("session expired")

	// ErrUntrustedSession is returned when a token has only passed the
	// password step and the caller requires a trusted session.
	ErrUntrustedSession = errors.New("second factor required")

	// ErrForbidden is returned when a guard predicate refuses a mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExhausted is returned when no unused token value could be
	// generated within maxTokenAttempts.
	ErrTokenExhausted = errors.New("could not generate a unique session token")
)
