// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data.
// It creates a demo restaurant and its owner if no users exist yet.
// passwordHash is stored verbatim so this package stays free of the
// hashing scheme.
func Seed(db *sql.DB, passwordHash string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	var restaurantID int64
	if err := db.QueryRow(
		`INSERT INTO restaurants (name) VALUES ($1) RETURNING id`, "Urban Burger",
	).Scan(&restaurantID); err != nil {
		return fmt.Errorf("seed insert restaurant: %w", err)
	}

	items := []struct{ name, description, price, course string }{
		{"Veggie Burger", "Juicy grilled veggie patty with tomato mayo and lettuce", "$7.50", "Entree"},
		{"French Fries", "with garlic and parmesan", "$2.99", "Appetizer"},
		{"Chocolate Cake", "fresh baked and served with ice cream", "$3.99", "Dessert"},
	}
	for _, it := range items {
		if _, err := db.Exec(`
			INSERT INTO menu_items (restaurant_id, name, description, price, course)
			VALUES ($1, $2, $3, $4, $5)
		`, restaurantID, it.name, it.description, it.price, it.course); err != nil {
			return fmt.Errorf("seed insert menu item: %w", err)
		}
	}

	_, err := db.Exec(`
		INSERT INTO users (name, email, password_hash, restaurant_id, permission)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin", "admin@menudir.local", passwordHash, restaurantID, 1)
	if err != nil {
		return fmt.Errorf("seed insert owner: %w", err)
	}

	slog.Info("database seeded with demo restaurant owner",
		"email", "admin@menudir.local",
		"password", "admin",
	)

	return nil
}
