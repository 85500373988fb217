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

// RestaurantStore handles restaurant rows.
type RestaurantStore struct {
	db database.DBTX
}

// NewRestaurantStore creates a new RestaurantStore with the given database handle.
func NewRestaurantStore(db database.DBTX) *RestaurantStore {
	return &RestaurantStore{db: db}
}

// List returns all restaurants ordered by name.
func (s *RestaurantStore) List(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM restaurants ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var list []models.Restaurant
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Find retrieves a restaurant by id.
func (s *RestaurantStore) Find(ctx context.Context, id int64) (*models.Restaurant, error) {
	r := &models.Restaurant{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM restaurants WHERE id = $1`, id).Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return r, nil
}

// Create inserts a restaurant and fills in its id.
func (s *RestaurantStore) Create(ctx context.Context, r *models.Restaurant) error {
	if err := s.db.QueryRowContext(ctx,
		`INSERT INTO restaurants (name) VALUES ($1) RETURNING id`, r.Name,
	).Scan(&r.ID); err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

// Rename updates a restaurant's name.
func (s *RestaurantStore) Rename(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE restaurants SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("rename restaurant: %w", err)
	}
	return checkAffected(res)
}

// Delete removes a restaurant; its menu items and comments cascade.
func (s *RestaurantStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	return checkAffected(res)
}
