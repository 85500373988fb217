// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"menudir/internal/store"
)

// API serves the read-only JSON dumps of the directory tables.
type API struct {
	rows store.RowDumper
}

// NewAPI creates the JSON handler group.
func NewAPI(rows store.RowDumper) *API {
	return &API{rows: rows}
}

// Restaurants handles GET /restaurant/JSON.
func (a *API) Restaurants(w http.ResponseWriter, r *http.Request) {
	rows, err := a.rows.Restaurants(r.Context())
	if err != nil {
		serverError(w, r, "dump restaurants failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Menu handles GET /restaurant/{restaurant_id}/menu/JSON.
func (a *API) Menu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "restaurant_id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	rows, err := a.rows.Menu(r.Context(), id)
	if err != nil {
		serverError(w, r, "dump menu failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// MenuItem handles GET /restaurant/{restaurant_id}/menu/{menu_id}/JSON.
func (a *API) MenuItem(w http.ResponseWriter, r *http.Request) {
	rid, ok := pathID(r, "restaurant_id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	itemID, ok := pathID(r, "menu_id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	rows, err := a.rows.MenuItem(r.Context(), rid, itemID)
	if err != nil {
		serverError(w, r, "dump menu item failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
