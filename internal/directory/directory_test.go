// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menudir/internal/auth"
	"menudir/internal/models"
	"menudir/internal/store"
	"menudir/internal/store/memory"
)

func plainHash(p string) (string, error) { return "plain$" + p, nil }

func setup(t *testing.T) (*Service, *memory.Manager) {
	t.Helper()
	st := memory.New()
	return New(st, WithPasswordHasher(plainHash)), st
}

func signup(t *testing.T, svc *Service, name string) *models.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), SignupInput{
		Name:                 name,
		Email:                name + "@example.com",
		Password:             "password123",
		PasswordVerification: "password123",
	})
	require.NoError(t, err)
	return u
}

func reload(t *testing.T, st *memory.Manager, id int64) *models.User {
	t.Helper()
	u, err := st.Users().FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestOwnershipLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	u := signup(t, svc, "ana")
	assert.True(t, auth.CanCreateRestaurant(reload(t, st, u.ID)))

	rest, err := svc.CreateRestaurant(ctx, u.ID, "  Bistro ")
	require.NoError(t, err)
	assert.Equal(t, "Bistro", rest.Name)

	owner := reload(t, st, u.ID)
	assert.False(t, auth.CanCreateRestaurant(owner))
	assert.Equal(t, models.PermissionOwner, owner.Permission)
	assert.True(t, owner.OwnsRestaurant(rest.ID))

	_, err = svc.CreateRestaurant(ctx, u.ID, "Second")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	deleted, err := svc.DeleteRestaurant(ctx, u.ID, rest.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bistro", deleted.Name)

	after := reload(t, st, u.ID)
	assert.True(t, auth.CanCreateRestaurant(after))
	assert.Equal(t, models.PermissionOrdinary, after.Permission)

	_, err = svc.Restaurant(ctx, rest.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentCreateRestaurantOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	u := signup(t, svc, "ana")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateRestaurant(ctx, u.ID, "Bistro")
		}(i)
	}
	wg.Wait()

	forbidden := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, auth.ErrForbidden)
			forbidden++
		}
	}
	assert.Equal(t, 1, forbidden)

	list, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateRestaurantRequiresName(t *testing.T) {
	svc, _ := setup(t)
	u := signup(t, svc, "ana")
	_, err := svc.CreateRestaurant(context.Background(), u.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRestaurantUnknownUser(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.CreateRestaurant(context.Background(), 404, "Ghost")
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRenameRestaurant(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	owner := signup(t, svc, "ana")
	other := signup(t, svc, "bob")
	rest, err := svc.CreateRestaurant(ctx, owner.ID, "Bistro")
	require.NoError(t, err)

	_, err = svc.RenameRestaurant(ctx, other.ID, rest.ID, "Hijacked")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.RenameRestaurant(ctx, owner.ID, rest.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	renamed, err := svc.RenameRestaurant(ctx, owner.ID, rest.ID, "Brasserie")
	require.NoError(t, err)
	assert.Equal(t, "Brasserie", renamed.Name)

	got, err := svc.Restaurant(ctx, rest.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brasserie", got.Name)
}

func TestDeleteRestaurantByNonOwnerChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	owner := signup(t, svc, "ana")
	other := signup(t, svc, "bob")
	rest, err := svc.CreateRestaurant(ctx, owner.ID, "Bistro")
	require.NoError(t, err)

	_, err = svc.DeleteRestaurant(ctx, other.ID, rest.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Restaurant(ctx, rest.ID)
	assert.NoError(t, err)
	assert.True(t, reload(t, st, owner.ID).OwnsRestaurant(rest.ID))
}

func TestMenuItems(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	owner := signup(t, svc, "ana")
	other := signup(t, svc, "bob")
	rest, err := svc.CreateRestaurant(ctx, owner.ID, "Bistro")
	require.NoError(t, err)

	_, err = svc.CreateMenuItem(ctx, other.ID, rest.ID, MenuItemInput{Name: "Soup"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.CreateMenuItem(ctx, owner.ID, rest.ID, MenuItemInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	item, err := svc.CreateMenuItem(ctx, owner.ID, rest.ID, MenuItemInput{
		Name: "Soup", Description: "Tomato", Price: "$4.50", Course: "Appetizer",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateMenuItem(ctx, owner.ID, rest.ID, item.ID, MenuItemInput{Price: "$5.00"})
	require.NoError(t, err)
	assert.Equal(t, "Soup", updated.Name)
	assert.Equal(t, "Tomato", updated.Description)
	assert.Equal(t, "$5.00", updated.Price)
	assert.Equal(t, "Appetizer", updated.Course)

	menu, err := svc.Menu(ctx, rest.ID)
	require.NoError(t, err)
	require.Len(t, menu.Items, 1)
	assert.Equal(t, "$5.00", menu.Items[0].Price)

	assert.ErrorIs(t, svc.DeleteMenuItem(ctx, other.ID, rest.ID, item.ID), auth.ErrForbidden)
	require.NoError(t, svc.DeleteMenuItem(ctx, owner.ID, rest.ID, item.ID))

	_, err = svc.MenuItem(ctx, rest.ID, item.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMenuItemMustBelongToRestaurant(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	a := signup(t, svc, "ana")
	b := signup(t, svc, "bob")
	ra, err := svc.CreateRestaurant(ctx, a.ID, "A")
	require.NoError(t, err)
	rb, err := svc.CreateRestaurant(ctx, b.ID, "B")
	require.NoError(t, err)

	item, err := svc.CreateMenuItem(ctx, b.ID, rb.ID, MenuItemInput{Name: "Pie"})
	require.NoError(t, err)

	// a owns ra but addresses b's item through it.
	_, err = svc.UpdateMenuItem(ctx, a.ID, ra.ID, item.ID, MenuItemInput{Name: "Stolen"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMenuItem(ctx, a.ID, ra.ID, item.ID), store.ErrNotFound)

	_, err = svc.MenuItem(ctx, ra.ID, item.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := svc.MenuItem(ctx, rb.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pie", got.Name)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	owner := signup(t, svc, "ana")
	visitor := signup(t, svc, "bob")
	rest, err := svc.CreateRestaurant(ctx, owner.ID, "Bistro")
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, owner.ID, rest.ID, CommentInput{Title: "Mine is best"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.CreateComment(ctx, visitor.ID, rest.ID, CommentInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateComment(ctx, visitor.ID, 9999, CommentInput{Title: "Where?"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	c, err := svc.CreateComment(ctx, visitor.ID, rest.ID, CommentInput{Title: "Great", Description: "Loved it"})
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Name)

	menu, err := svc.Menu(ctx, rest.ID)
	require.NoError(t, err)
	require.Len(t, menu.Comments, 1)
	assert.Equal(t, "Great", menu.Comments[0].Title)
}

func setupStore() *memory.Manager { return memory.New() }

func TestMenuCourses(t *testing.T) {
	m := &Menu{Items: []models.MenuItem{
		{ID: 1, Name: "Soup", Course: "Appetizer"},
		{ID: 2, Name: "Steak", Course: "Entree"},
		{ID: 3, Name: "Bread", Course: "appetizer"},
		{ID: 4, Name: "Salad", Course: "Entrée"},
		{ID: 5, Name: "Water"},
	}}

	groups := m.Courses()
	require.Len(t, groups, 3)

	assert.Equal(t, "Appetizer", groups[0].Name)
	assert.Equal(t, "course-appetizer", groups[0].Anchor)
	assert.Len(t, groups[0].Items, 2)

	assert.Equal(t, "Entree", groups[1].Name)
	assert.Equal(t, []int64{2, 4}, []int64{groups[1].Items[0].ID, groups[1].Items[1].ID})

	assert.Equal(t, "Other", groups[2].Name)
	assert.Equal(t, "course-other", groups[2].Anchor)
}

func TestMenuCoursesEmpty(t *testing.T) {
	assert.Empty(t, (&Menu{}).Courses())
}
