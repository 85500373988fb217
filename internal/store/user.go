// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menudir/internal/database"
	"menudir/internal/models"
)

const userColumns = `id, name, email, password_hash, totp_secret, totp_verified, restaurant_id, permission`

// UserStore handles all user-related database operations.
type UserStore struct {
	db database.DBTX
}

// NewUserStore creates a new UserStore with the given database handle.
func NewUserStore(db database.DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.TOTPSecret, &u.TOTPVerified, &u.RestaurantID, &u.Permission,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a user by id.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

// FindByIDForUpdate retrieves a user by id and locks the row.
func (s *UserStore) FindByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return u, err
}

// FindByEmail retrieves a user by email address.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

// FindByName retrieves a user by display name.
func (s *UserStore) FindByName(ctx context.Context, name string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1`, name))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	return u, err
}

// Create inserts a new user and fills in its id. The password must
// already be hashed.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, permission)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name, u.Email, u.PasswordHash, u.Permission).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetTOTP stores the TOTP secret (nil clears it) and the verification flag.
func (s *UserStore) SetTOTP(ctx context.Context, id int64, secret *string, verified bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, totp_verified = $2 WHERE id = $3
	`, secret, verified, id)
	if err != nil {
		return fmt.Errorf("set totp: %w", err)
	}
	return checkAffected(res)
}

// SetRestaurant records restaurant ownership and the matching permission level.
func (s *UserStore) SetRestaurant(ctx context.Context, id int64, restaurantID *int64, perm models.Permission) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET restaurant_id = $1, permission = $2 WHERE id = $3
	`, restaurantID, perm, id)
	if err != nil {
		return fmt.Errorf("set restaurant: %w", err)
	}
	return checkAffected(res)
}

// ReleaseRestaurant drops ownership of a restaurant and resets the
// owner's permission level. It is a no-op for unowned restaurants.
func (s *UserStore) ReleaseRestaurant(ctx context.Context, restaurantID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET restaurant_id = NULL, permission = $1 WHERE restaurant_id = $2
	`, models.PermissionOrdinary, restaurantID)
	if err != nil {
		return fmt.Errorf("release restaurant: %w", err)
	}
	return nil
}
