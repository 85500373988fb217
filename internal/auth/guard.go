// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import "menudir/internal/models"

// CanCreateRestaurant reports whether u may create a restaurant. A user
// owns at most one.
func CanCreateRestaurant(u *models.User) bool {
	return u != nil && u.RestaurantID == nil
}

// CanMutateRestaurant reports whether u owns restaurantID.
func CanMutateRestaurant(u *models.User, restaurantID int64) bool {
	return u != nil && u.OwnsRestaurant(restaurantID)
}

// CanMutateMenuItem reports whether u may change items of restaurantID.
// Items are scoped to the restaurant owner, not to whoever added them.
func CanMutateMenuItem(u *models.User, restaurantID int64) bool {
	return CanMutateRestaurant(u, restaurantID)
}

// CanComment reports whether u may post a comment. Restaurant owners
// are excluded.
func CanComment(u *models.User) bool {
	return u != nil && u.Permission == models.PermissionOrdinary
}
