// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package directory implements the restaurant, menu and comment
// operations. Every mutation locks the acting user, evaluates the
// matching guard and writes inside one transaction.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"menudir/internal/auth"
	"menudir/internal/models"
	"menudir/internal/slug"
	"menudir/internal/store"
)

// ErrInvalidInput is returned when a required form field is missing or
// malformed.
var ErrInvalidInput = errors.New("invalid input")

// Service exposes the directory operations.
type Service struct {
	store store.Manager
	hash  func(password string) (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithPasswordHasher replaces auth.HashPassword for new accounts.
func WithPasswordHasher(hash func(string) (string, error)) Option {
	return func(s *Service) { s.hash = hash }
}

// New creates a directory service on s.
func New(s store.Manager, opts ...Option) *Service {
	svc := &Service{store: s, hash: auth.HashPassword}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// MenuItemInput carries the editable menu item fields.
type MenuItemInput struct {
	Name        string
	Description string
	Price       string
	Course      string
}

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	Title       string
	Description string
	Name        string
}

// Menu is a restaurant with its items and comments.
type Menu struct {
	Restaurant models.Restaurant
	Items      []models.MenuItem
	Comments   []models.Comment
}

// CourseGroup is the run of menu items filed under one course.
type CourseGroup struct {
	Name   string
	Anchor string
	Items  []models.MenuItem
}

// Courses groups the items by course in order of first appearance.
// Labels that slug the same ("Entree", "entrée") share a group named
// after the first one seen; items without a course go under "Other".
func (m *Menu) Courses() []CourseGroup {
	var groups []CourseGroup
	index := make(map[string]int)
	for _, it := range m.Items {
		name := it.Course
		if name == "" {
			name = "Other"
		}
		anchor := "course-" + slug.GenerateOr(name, "other")
		i, ok := index[anchor]
		if !ok {
			i = len(groups)
			index[anchor] = i
			groups = append(groups, CourseGroup{Name: name, Anchor: anchor})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// ListRestaurants returns every restaurant ordered by name.
func (s *Service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	list, err := s.store.Restaurants().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return list, nil
}

// Restaurant returns one restaurant or store.ErrNotFound.
func (s *Service) Restaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	r, err := s.store.Restaurants().Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return r, nil
}

// Menu returns a restaurant together with its items and comments.
func (s *Service) Menu(ctx context.Context, restaurantID int64) (*Menu, error) {
	r, err := s.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.MenuItems().ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	comments, err := s.store.Comments().ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &Menu{Restaurant: *r, Items: items, Comments: comments}, nil
}

// MenuItem returns the item only if it belongs to restaurantID.
func (s *Service) MenuItem(ctx context.Context, restaurantID, itemID int64) (*models.MenuItem, error) {
	return findItem(ctx, s.store, restaurantID, itemID)
}

func findItem(ctx context.Context, r store.Repositories, restaurantID, itemID int64) (*models.MenuItem, error) {
	it, err := r.MenuItems().Find(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("find menu item: %w", err)
	}
	if it.RestaurantID != restaurantID {
		return nil, fmt.Errorf("find menu item: %w", store.ErrNotFound)
	}
	return it, nil
}

// actor locks and returns the acting user. A user that no longer exists
// is refused like any other unauthorized actor.
func actor(ctx context.Context, r store.Repositories, userID int64) (*models.User, error) {
	u, err := r.Users().FindByIDForUpdate(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrForbidden
	}
	return u, err
}

// CreateRestaurant creates a restaurant owned by userID and raises the
// user to owner.
func (s *Service) CreateRestaurant(ctx context.Context, userID int64, name string) (*models.Restaurant, error) {
	name = strings.TrimSpace(name)
	var created *models.Restaurant
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanCreateRestaurant(u) {
			return auth.ErrForbidden
		}
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidInput)
		}

		rest := &models.Restaurant{Name: name}
		if err := r.Restaurants().Create(ctx, rest); err != nil {
			return err
		}
		if err := r.Users().SetRestaurant(ctx, u.ID, &rest.ID, models.PermissionOwner); err != nil {
			return err
		}
		created = rest
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return created, nil
}

// RenameRestaurant renames a restaurant owned by userID.
func (s *Service) RenameRestaurant(ctx context.Context, userID, restaurantID int64, name string) (*models.Restaurant, error) {
	name = strings.TrimSpace(name)
	var renamed *models.Restaurant
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanMutateRestaurant(u, restaurantID) {
			return auth.ErrForbidden
		}
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		if err := r.Restaurants().Rename(ctx, restaurantID, name); err != nil {
			return err
		}
		renamed = &models.Restaurant{ID: restaurantID, Name: name}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rename restaurant: %w", err)
	}
	return renamed, nil
}

// DeleteRestaurant deletes a restaurant owned by userID together with its
// items and comments, and returns the user to ordinary permission.
func (s *Service) DeleteRestaurant(ctx context.Context, userID, restaurantID int64) (*models.Restaurant, error) {
	var deleted *models.Restaurant
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanMutateRestaurant(u, restaurantID) {
			return auth.ErrForbidden
		}
		rest, err := r.Restaurants().Find(ctx, restaurantID)
		if err != nil {
			return err
		}
		if err := r.Users().ReleaseRestaurant(ctx, restaurantID); err != nil {
			return err
		}
		if err := r.Restaurants().Delete(ctx, restaurantID); err != nil {
			return err
		}
		deleted = rest
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete restaurant: %w", err)
	}
	return deleted, nil
}

// CreateMenuItem adds an item to a restaurant owned by userID.
func (s *Service) CreateMenuItem(ctx context.Context, userID, restaurantID int64, in MenuItemInput) (*models.MenuItem, error) {
	in = in.trimmed()
	var created *models.MenuItem
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanMutateMenuItem(u, restaurantID) {
			return auth.ErrForbidden
		}
		if in.Name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		it := &models.MenuItem{
			RestaurantID: restaurantID,
			Name:         in.Name,
			Description:  in.Description,
			Price:        in.Price,
			Course:       in.Course,
		}
		if err := r.MenuItems().Create(ctx, it); err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	return created, nil
}

// UpdateMenuItem overwrites the non-empty fields of in on the item.
func (s *Service) UpdateMenuItem(ctx context.Context, userID, restaurantID, itemID int64, in MenuItemInput) (*models.MenuItem, error) {
	in = in.trimmed()
	var updated *models.MenuItem
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanMutateMenuItem(u, restaurantID) {
			return auth.ErrForbidden
		}
		it, err := findItem(ctx, r, restaurantID, itemID)
		if err != nil {
			return err
		}
		if in.Name != "" {
			it.Name = in.Name
		}
		if in.Description != "" {
			it.Description = in.Description
		}
		if in.Price != "" {
			it.Price = in.Price
		}
		if in.Course != "" {
			it.Course = in.Course
		}
		if err := r.MenuItems().Update(ctx, it); err != nil {
			return err
		}
		updated = it
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	return updated, nil
}

// DeleteMenuItem removes an item of a restaurant owned by userID.
func (s *Service) DeleteMenuItem(ctx context.Context, userID, restaurantID, itemID int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanMutateMenuItem(u, restaurantID) {
			return auth.ErrForbidden
		}
		if _, err := findItem(ctx, r, restaurantID, itemID); err != nil {
			return err
		}
		return r.MenuItems().Delete(ctx, itemID)
	})
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return nil
}

// CreateComment posts a comment on a restaurant.
func (s *Service) CreateComment(ctx context.Context, userID, restaurantID int64, in CommentInput) (*models.Comment, error) {
	c := &models.Comment{
		RestaurantID: restaurantID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Name:         strings.TrimSpace(in.Name),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := actor(ctx, r, userID)
		if err != nil {
			return err
		}
		if !auth.CanComment(u) {
			return auth.ErrForbidden
		}
		if c.Title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		if _, err := r.Restaurants().Find(ctx, restaurantID); err != nil {
			return err
		}
		if c.Name == "" {
			c.Name = u.Name
		}
		return r.Comments().Create(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (in MenuItemInput) trimmed() MenuItemInput {
	return MenuItemInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       strings.TrimSpace(in.Price),
		Course:      strings.TrimSpace(in.Course),
	}
}
