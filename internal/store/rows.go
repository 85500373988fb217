// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"menudir/internal/database"
)

// RowStore dumps raw table rows for the JSON endpoints. Every query is
// parameterized; ids arrive from the request path and are untrusted.
type RowStore struct {
	db database.DBTX
}

// NewRowStore creates a new RowStore with the given database handle.
func NewRowStore(db database.DBTX) *RowStore {
	return &RowStore{db: db}
}

// Restaurants returns every restaurant row.
func (s *RowStore) Restaurants(ctx context.Context) ([]map[string]any, error) {
	return s.query(ctx, `SELECT * FROM restaurants ORDER BY id`)
}

// Menu returns every menu item row of a restaurant.
func (s *RowStore) Menu(ctx context.Context, restaurantID int64) ([]map[string]any, error) {
	return s.query(ctx, `SELECT * FROM menu_items WHERE restaurant_id = $1 ORDER BY id`, restaurantID)
}

// MenuItem returns the single menu item row, or an empty slice.
func (s *RowStore) MenuItem(ctx context.Context, restaurantID, itemID int64) ([]map[string]any, error) {
	return s.query(ctx, `SELECT * FROM menu_items WHERE id = $1 AND restaurant_id = $2 LIMIT 1`, itemID, restaurantID)
}

func (s *RowStore) query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dump rows: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dump columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dump scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
