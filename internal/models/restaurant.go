// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Restaurant is a directory entry owned by at most one user.
type Restaurant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MenuItem is a dish listed under a restaurant's menu.
type MenuItem struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Course       string `json:"course"`
}

// Comment is a visitor review shown on a restaurant's menu page.
type Comment struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Name         string `json:"name"`
}
