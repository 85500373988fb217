// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for all directory entities.
// Each store wraps a database.DBTX (a pool or a transaction) and exposes
// typed query methods; Postgres groups them and runs transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"menudir/internal/database"
	"menudir/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("not found")

	// ErrTokenCollision is returned when a session token value is already taken.
	ErrTokenCollision = errors.New("token value already in use")

	// ErrDuplicate is returned when a unique user attribute is already taken.
	ErrDuplicate = errors.New("already exists")
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// FindByIDForUpdate locks the user row until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetTOTP(ctx context.Context, id int64, secret *string, verified bool) error
	SetRestaurant(ctx context.Context, id int64, restaurantID *int64, perm models.Permission) error
	// ReleaseRestaurant clears ownership of restaurantID on whichever user holds it.
	ReleaseRestaurant(ctx context.Context, restaurantID int64) error
}

// TokenRepository is the session token store.
type TokenRepository interface {
	Find(ctx context.Context, value string) (*models.SessionToken, error)
	Exists(ctx context.Context, value string) (bool, error)
	// Create returns ErrTokenCollision when the value is already stored.
	Create(ctx context.Context, t *models.SessionToken) error
	Touch(ctx context.Context, value string, at time.Time) error
	SetTrusted(ctx context.Context, value string) error
	Delete(ctx context.Context, value string) error
}

// RestaurantRepository stores restaurants.
type RestaurantRepository interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	Find(ctx context.Context, id int64) (*models.Restaurant, error)
	Create(ctx context.Context, r *models.Restaurant) error
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// MenuItemRepository stores menu items.
type MenuItemRepository interface {
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]models.MenuItem, error)
	Find(ctx context.Context, id int64) (*models.MenuItem, error)
	Create(ctx context.Context, m *models.MenuItem) error
	Update(ctx context.Context, m *models.MenuItem) error
	Delete(ctx context.Context, id int64) error
}

// CommentRepository stores restaurant comments.
type CommentRepository interface {
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
}

// RowDumper exposes raw table rows as column-to-value maps for the
// read-only JSON endpoints.
type RowDumper interface {
	Restaurants(ctx context.Context) ([]map[string]any, error)
	Menu(ctx context.Context, restaurantID int64) ([]map[string]any, error)
	MenuItem(ctx context.Context, restaurantID, itemID int64) ([]map[string]any, error)
}

// Repositories bundles the stores bound to one database handle.
type Repositories interface {
	Users() UserRepository
	Tokens() TokenRepository
	Restaurants() RestaurantRepository
	MenuItems() MenuItemRepository
	Comments() CommentRepository
	Rows() RowDumper
}

// Manager hands out repositories and runs read-modify-write sequences
// inside a single transaction.
type Manager interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

// repos binds every store to the same DBTX.
type repos struct {
	q database.DBTX
}

func (r repos) Users() UserRepository             { return NewUserStore(r.q) }
func (r repos) Tokens() TokenRepository           { return NewTokenStore(r.q) }
func (r repos) Restaurants() RestaurantRepository { return NewRestaurantStore(r.q) }
func (r repos) MenuItems() MenuItemRepository     { return NewMenuItemStore(r.q) }
func (r repos) Comments() CommentRepository       { return NewCommentStore(r.q) }
func (r repos) Rows() RowDumper                   { return NewRowStore(r.q) }

// Postgres implements Manager on a PostgreSQL connection pool.
type Postgres struct {
	repos
	db *sql.DB
}

// NewPostgres creates a Manager backed by db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{repos: repos{q: db}, db: db}
}

// WithTx runs fn with repositories bound to a single transaction.
func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return database.WithTx(ctx, p.db, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, repos{q: tx})
	})
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// checkAffected maps a zero-row update or delete to ErrNotFound.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
