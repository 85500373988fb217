// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the restaurant directory:
// account and second-factor pages, restaurant/menu/comment pages and the
// read-only JSON endpoints.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"menudir/internal/middleware"
	"menudir/internal/session"
)

// Flash types understood by the base template.
const (
	flashSuccess = "success"
	flashError   = "error"
)

// pathID parses a numeric chi URL parameter. ok is false for anything
// that is not a positive integer.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// flashRedirect queues a notice and redirects with 303.
func flashRedirect(w http.ResponseWriter, r *http.Request, sessions *session.Store, kind, msg, target string) {
	if err := sessions.AddFlash(r.Context(), w, r, session.Flash{Type: kind, Message: msg}); err != nil {
		slog.Warn("add flash failed", "error", err, "request_id", middleware.RequestIDFromCtx(r.Context()))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// serverError logs err and writes a bare 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "request_id", middleware.RequestIDFromCtx(r.Context()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode json response failed", "error", err)
	}
}

func menuPath(restaurantID int64) string {
	return fmt.Sprintf("/restaurant/%d/menu/", restaurantID)
}
