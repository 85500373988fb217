// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"menudir/internal/database"
	"menudir/internal/models"
)

// CommentStore handles comment rows.
type CommentStore struct {
	db database.DBTX
}

// NewCommentStore creates a new CommentStore with the given database handle.
func NewCommentStore(db database.DBTX) *CommentStore {
	return &CommentStore{db: db}
}

// ListByRestaurant returns a restaurant's comments, oldest first.
func (s *CommentStore) ListByRestaurant(ctx context.Context, restaurantID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, title, description, name
		FROM comments WHERE restaurant_id = $1 ORDER BY id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Title, &c.Description, &c.Name); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Create inserts a comment and fills in its id.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) error {
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (restaurant_id, title, description, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.RestaurantID, c.Title, c.Description, c.Name).Scan(&c.ID); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
