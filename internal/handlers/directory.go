// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"menudir/internal/auth"
	"menudir/internal/directory"
	"menudir/internal/middleware"
	"menudir/internal/render"
	"menudir/internal/session"
	"menudir/internal/store"
)

// Directory groups the restaurant, menu and comment pages.
type Directory struct {
	renderer *render.Renderer
	sessions *session.Store
	dir      *directory.Service
}

// NewDirectory creates a new Directory handler group.
func NewDirectory(renderer *render.Renderer, sessions *session.Store, dir *directory.Service) *Directory {
	return &Directory{
		renderer: renderer,
		sessions: sessions,
		dir:      dir,
	}
}

// Restaurants lists every restaurant.
func (d *Directory) Restaurants(w http.ResponseWriter, r *http.Request) {
	list, err := d.dir.ListRestaurants(r.Context())
	if err != nil {
		serverError(w, r, "list restaurants failed", err)
		return
	}
	d.renderer.Page(w, r, "restaurants", &render.PageData{
		Title: "Restaurants",
		Data:  map[string]any{"Restaurants": list},
	})
}

// NewRestaurantPage renders the create form for users without a restaurant.
func (d *Directory) NewRestaurantPage(w http.ResponseWriter, r *http.Request) {
	if !auth.CanCreateRestaurant(middleware.UserFromCtx(r.Context())) {
		flashRedirect(w, r, d.sessions, flashError, "User already belongs to a restaurant", "/restaurant/")
		return
	}
	d.renderer.Page(w, r, "restaurant_new", &render.PageData{
		Title: "New Restaurant",
		Data:  map[string]any{},
	})
}

// NewRestaurantSubmit creates the restaurant and makes the user its owner.
func (d *Directory) NewRestaurantSubmit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	name := r.FormValue("name")
	if msg := validateRestaurant(name); msg != "" {
		d.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "restaurant_new", &render.PageData{
			Title: "New Restaurant",
			Data:  map[string]any{"Error": msg},
		})
		return
	}

	created, err := d.dir.CreateRestaurant(r.Context(), user.ID, name)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		flashRedirect(w, r, d.sessions, flashError, "User already belongs to a restaurant", "/restaurant/")
	case err != nil:
		serverError(w, r, "create restaurant failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess,
			fmt.Sprintf("New Restaurant %s Successfully Created", created.Name), "/restaurant/")
	}
}

// restaurantFor loads the path restaurant for its owner. It writes the
// response and returns false when the visitor cannot proceed.
func (d *Directory) restaurantFor(w http.ResponseWriter, r *http.Request, failMsg string) (int64, bool) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return 0, false
	}
	if !auth.CanMutateRestaurant(middleware.UserFromCtx(r.Context()), id) {
		flashRedirect(w, r, d.sessions, flashError, failMsg, "/restaurant/")
		return 0, false
	}
	return id, true
}

// EditRestaurantPage renders the rename form.
func (d *Directory) EditRestaurantPage(w http.ResponseWriter, r *http.Request) {
	id, ok := d.restaurantFor(w, r, "Failed to edit restaurant")
	if !ok {
		return
	}
	rest, err := d.dir.Restaurant(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		d.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load restaurant failed", err)
		return
	}
	d.renderer.Page(w, r, "restaurant_edit", &render.PageData{
		Title: "Edit " + rest.Name,
		Data:  map[string]any{"Restaurant": rest},
	})
}

// EditRestaurantSubmit renames the restaurant.
func (d *Directory) EditRestaurantSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := d.restaurantFor(w, r, "Failed to edit restaurant")
	if !ok {
		return
	}
	name := r.FormValue("name")
	if msg := validateRestaurant(name); msg != "" {
		flashRedirect(w, r, d.sessions, flashError, msg, fmt.Sprintf("/restaurant/%d/edit/", id))
		return
	}

	user := middleware.UserFromCtx(r.Context())
	renamed, err := d.dir.RenameRestaurant(r.Context(), user.ID, id, name)
	switch {
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, store.ErrNotFound):
		flashRedirect(w, r, d.sessions, flashError, "Failed to edit restaurant", "/restaurant/")
	case err != nil:
		serverError(w, r, "rename restaurant failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess,
			fmt.Sprintf("Restaurant Successfully Edited %s", renamed.Name), "/restaurant/")
	}
}

// DeleteRestaurantPage renders the delete confirmation.
func (d *Directory) DeleteRestaurantPage(w http.ResponseWriter, r *http.Request) {
	id, ok := d.restaurantFor(w, r, "Failed to delete restaurant")
	if !ok {
		return
	}
	rest, err := d.dir.Restaurant(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		d.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load restaurant failed", err)
		return
	}
	d.renderer.Page(w, r, "restaurant_delete", &render.PageData{
		Title: "Delete " + rest.Name,
		Data:  map[string]any{"Restaurant": rest},
	})
}

// DeleteRestaurantSubmit deletes the restaurant and releases ownership.
func (d *Directory) DeleteRestaurantSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := d.restaurantFor(w, r, "Failed to delete restaurant")
	if !ok {
		return
	}
	user := middleware.UserFromCtx(r.Context())
	deleted, err := d.dir.DeleteRestaurant(r.Context(), user.ID, id)
	switch {
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, store.ErrNotFound):
		flashRedirect(w, r, d.sessions, flashError, "Failed to delete restaurant", "/restaurant/")
	case err != nil:
		serverError(w, r, "delete restaurant failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess,
			fmt.Sprintf("%s Successfully Deleted", deleted.Name), "/restaurant/")
	}
}

// Menu shows a restaurant's items and comments.
func (d *Directory) Menu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return
	}
	menu, err := d.dir.Menu(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		d.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load menu failed", err)
		return
	}
	d.renderer.Page(w, r, "menu", &render.PageData{
		Title: menu.Restaurant.Name,
		Data:  map[string]any{"Menu": menu},
	})
}

// NewCommentPage renders the comment form for ordinary users.
func (d *Directory) NewCommentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return
	}
	if !auth.CanComment(middleware.UserFromCtx(r.Context())) {
		flashRedirect(w, r, d.sessions, flashError, "Failed to create comment", menuPath(id))
		return
	}
	d.renderer.Page(w, r, "comment_new", &render.PageData{
		Title: "New Comment",
		Data:  map[string]any{"RestaurantID": id},
	})
}

// NewCommentSubmit posts a comment.
func (d *Directory) NewCommentSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return
	}
	in := directory.CommentInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Name:        r.FormValue("name"),
	}
	if msg := validateComment(in); msg != "" {
		flashRedirect(w, r, d.sessions, flashError, msg, fmt.Sprintf("/restaurant/%d/comment/new/", id))
		return
	}

	user := middleware.UserFromCtx(r.Context())
	c, err := d.dir.CreateComment(r.Context(), user.ID, id, in)
	switch {
	case errors.Is(err, store.ErrNotFound):
		d.renderer.NotFound(w, r)
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, directory.ErrInvalidInput):
		flashRedirect(w, r, d.sessions, flashError, "Failed to create comment", menuPath(id))
	case err != nil:
		serverError(w, r, "create comment failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess,
			fmt.Sprintf("New Comment %s Successfully Created", c.Title), menuPath(id))
	}
}

// menuFor checks that the user owns the path restaurant. Failures go
// back to the menu page with failMsg.
func (d *Directory) menuFor(w http.ResponseWriter, r *http.Request, failMsg string) (int64, bool) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return 0, false
	}
	if !auth.CanMutateMenuItem(middleware.UserFromCtx(r.Context()), id) {
		flashRedirect(w, r, d.sessions, flashError, failMsg, menuPath(id))
		return 0, false
	}
	return id, true
}

// itemFor loads the path item of an owned restaurant.
func (d *Directory) itemFor(w http.ResponseWriter, r *http.Request, failMsg string) (int64, int64, bool) {
	rid, ok := d.menuFor(w, r, failMsg)
	if !ok {
		return 0, 0, false
	}
	itemID, ok := pathID(r, "menu_id")
	if !ok {
		d.renderer.NotFound(w, r)
		return 0, 0, false
	}
	return rid, itemID, true
}

func menuItemInput(r *http.Request) directory.MenuItemInput {
	return directory.MenuItemInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Course:      r.FormValue("course"),
	}
}

// NewMenuItemPage renders the item form.
func (d *Directory) NewMenuItemPage(w http.ResponseWriter, r *http.Request) {
	rid, ok := d.menuFor(w, r, "Failed to create menu item")
	if !ok {
		return
	}
	d.renderer.Page(w, r, "menu_item_new", &render.PageData{
		Title: "New Menu Item",
		Data:  map[string]any{"RestaurantID": rid},
	})
}

// NewMenuItemSubmit adds an item to the menu.
func (d *Directory) NewMenuItemSubmit(w http.ResponseWriter, r *http.Request) {
	rid, ok := d.menuFor(w, r, "Failed to create menu item")
	if !ok {
		return
	}
	in := menuItemInput(r)
	if msg := validateMenuItem(in, true); msg != "" {
		flashRedirect(w, r, d.sessions, flashError, msg, fmt.Sprintf("/restaurant/%d/menu/new/", rid))
		return
	}

	user := middleware.UserFromCtx(r.Context())
	item, err := d.dir.CreateMenuItem(r.Context(), user.ID, rid, in)
	switch {
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, directory.ErrInvalidInput):
		flashRedirect(w, r, d.sessions, flashError, "Failed to create menu item", menuPath(rid))
	case err != nil:
		serverError(w, r, "create menu item failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess,
			fmt.Sprintf("New Menu %s Item Successfully Created", item.Name), menuPath(rid))
	}
}

// EditMenuItemPage renders the item edit form.
func (d *Directory) EditMenuItemPage(w http.ResponseWriter, r *http.Request) {
	d.itemPage(w, r, "menu_item_edit", "Edit Menu Item", "Failed to edit menu item")
}

// DeleteMenuItemPage renders the item delete confirmation.
func (d *Directory) DeleteMenuItemPage(w http.ResponseWriter, r *http.Request) {
	d.itemPage(w, r, "menu_item_delete", "Delete Menu Item", "Failed to delete menu item")
}

func (d *Directory) itemPage(w http.ResponseWriter, r *http.Request, tmpl, title, failMsg string) {
	rid, itemID, ok := d.itemFor(w, r, failMsg)
	if !ok {
		return
	}
	item, err := d.dir.MenuItem(r.Context(), rid, itemID)
	if errors.Is(err, store.ErrNotFound) {
		d.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load menu item failed", err)
		return
	}
	d.renderer.Page(w, r, tmpl, &render.PageData{
		Title: title,
		Data:  map[string]any{"Item": item},
	})
}

// EditMenuItemSubmit updates the non-empty fields of an item.
func (d *Directory) EditMenuItemSubmit(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := d.itemFor(w, r, "Failed to edit menu item")
	if !ok {
		return
	}
	in := menuItemInput(r)
	if msg := validateMenuItem(in, false); msg != "" {
		flashRedirect(w, r, d.sessions, flashError, msg, fmt.Sprintf("/restaurant/%d/menu/%d/edit", rid, itemID))
		return
	}

	user := middleware.UserFromCtx(r.Context())
	_, err := d.dir.UpdateMenuItem(r.Context(), user.ID, rid, itemID, in)
	switch {
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, store.ErrNotFound):
		flashRedirect(w, r, d.sessions, flashError, "Failed to edit menu item", menuPath(rid))
	case err != nil:
		serverError(w, r, "update menu item failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess, "Menu Item Successfully Edited", menuPath(rid))
	}
}

// DeleteMenuItemSubmit removes an item.
func (d *Directory) DeleteMenuItemSubmit(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := d.itemFor(w, r, "Failed to delete menu item")
	if !ok {
		return
	}
	user := middleware.UserFromCtx(r.Context())
	err := d.dir.DeleteMenuItem(r.Context(), user.ID, rid, itemID)
	switch {
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, store.ErrNotFound):
		flashRedirect(w, r, d.sessions, flashError, "Failed to delete menu item", menuPath(rid))
	case err != nil:
		serverError(w, r, "delete menu item failed", err)
	default:
		flashRedirect(w, r, d.sessions, flashSuccess, "Menu Item Successfully Deleted", menuPath(rid))
	}
}
