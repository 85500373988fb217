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

// MenuItemStore handles menu item rows.
type MenuItemStore struct {
	db database.DBTX
}

// NewMenuItemStore creates a new MenuItemStore with the given database handle.
func NewMenuItemStore(db database.DBTX) *MenuItemStore {
	return &MenuItemStore{db: db}
}

// ListByRestaurant returns a restaurant's menu in insertion order.
func (s *MenuItemStore) ListByRestaurant(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, description, price, course
		FROM menu_items WHERE restaurant_id = $1 ORDER BY id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.Course); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Find retrieves a menu item by id.
func (s *MenuItemStore) Find(ctx context.Context, id int64) (*models.MenuItem, error) {
	m := &models.MenuItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, description, price, course
		FROM menu_items WHERE id = $1
	`, id).Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.Course)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find menu item: %w", err)
	}
	return m, nil
}

// Create inserts a menu item and fills in its id.
func (s *MenuItemStore) Create(ctx context.Context, m *models.MenuItem) error {
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (restaurant_id, name, description, price, course)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.RestaurantID, m.Name, m.Description, m.Price, m.Course).Scan(&m.ID); err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

// Update saves all editable fields of a menu item.
func (s *MenuItemStore) Update(ctx context.Context, m *models.MenuItem) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE menu_items SET name = $1, description = $2, price = $3, course = $4
		WHERE id = $5
	`, m.Name, m.Description, m.Price, m.Course, m.ID)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return checkAffected(res)
}

// Delete removes a menu item.
func (s *MenuItemStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return checkAffected(res)
}
