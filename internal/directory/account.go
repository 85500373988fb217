// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package directory

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"menudir/internal/models"
	"menudir/internal/store"
)

const (
	maxNameLength     = 80
	minPasswordLength = 8
)

var (
	// ErrAccountExists is returned when the name or email is taken.
	ErrAccountExists = errors.New("username or email address already registered")

	// ErrPasswordMismatch is returned when the two password fields differ.
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
)

// SignupInput is the signup form.
type SignupInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordVerification string
}

// NormalizeEmail lowercases and trims an address and returns "" when it
// does not parse as a bare address.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}

// Signup creates an ordinary account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if in.Password != in.PasswordVerification {
		return nil, ErrPasswordMismatch
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > maxNameLength:
		return nil, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxNameLength)
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: a valid email address is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	if taken, err := s.taken(ctx, name, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrAccountExists
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Permission:   models.PermissionOrdinary,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) taken(ctx context.Context, name, email string) (bool, error) {
	for _, find := range []func() (*models.User, error){
		func() (*models.User, error) { return s.store.Users().FindByName(ctx, name) },
		func() (*models.User, error) { return s.store.Users().FindByEmail(ctx, email) },
	} {
		_, err := find()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, fmt.Errorf("check account: %w", err)
		}
	}
	return false, nil
}
