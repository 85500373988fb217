// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"menudir/internal/database"
	"menudir/internal/models"
)

// TokenStore handles session token rows.
type TokenStore struct {
	db database.DBTX
}

// NewTokenStore creates a new TokenStore with the given database handle.
func NewTokenStore(db database.DBTX) *TokenStore {
	return &TokenStore{db: db}
}

// Find returns the token row for the given value.
func (s *TokenStore) Find(ctx context.Context, value string) (*models.SessionToken, error) {
	t := &models.SessionToken{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, last_used_at, trusted
		FROM session_tokens WHERE token = $1
	`, value).Scan(&t.ID, &t.UserID, &t.Value, &t.LastUsedAt, &t.Trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return t, nil
}

// Exists reports whether a live token holds the given value.
func (s *TokenStore) Exists(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_tokens WHERE token = $1)`, value,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("token exists: %w", err)
	}
	return exists, nil
}

// Create inserts a token. The unique index on the value makes a
// concurrent duplicate insert fail with ErrTokenCollision.
func (s *TokenStore) Create(ctx context.Context, t *models.SessionToken) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO session_tokens (id, user_id, token, last_used_at, trusted)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO NOTHING
	`, t.ID, t.UserID, t.Value, t.LastUsedAt, t.Trusted)
	if isUniqueViolation(err) {
		return ErrTokenCollision
	}
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	if n == 0 {
		return ErrTokenCollision
	}
	return nil
}

// Touch sets last_used_at for the given value.
func (s *TokenStore) Touch(ctx context.Context, value string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_tokens SET last_used_at = $1 WHERE token = $2`, at, value)
	if err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return checkAffected(res)
}

// SetTrusted marks the token as having passed the second factor.
func (s *TokenStore) SetTrusted(ctx context.Context, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_tokens SET trusted = TRUE WHERE token = $1`, value)
	if err != nil {
		return fmt.Errorf("trust token: %w", err)
	}
	return checkAffected(res)
}

// Delete removes the token. Deleting an absent value is not an error.
func (s *TokenStore) Delete(ctx context.Context, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE token = $1`, value); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
