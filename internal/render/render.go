// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the directory pages.
// Every page is paired with the base layout; html/template escapes all
// user-supplied text.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"menudir/internal/auth"
	"menudir/internal/markdown"
	"menudir/internal/middleware"
	"menudir/internal/models"
	"menudir/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title               string          // Page title for <title> tag
	User                *models.User    // Trusted user (nil if anonymous)
	PendingSecondFactor bool            // Password step passed, code still due
	CSRFToken           string          // CSRF token for forms
	Data                map[string]any  // Page-specific data
	Flashes             []session.Flash // One-time notification messages
}

// FlashSource hands out the notices queued for the current visitor.
type FlashSource interface {
	PopFlashes(ctx context.Context, w http.ResponseWriter, r *http.Request) ([]session.Flash, error)
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	flashes   FlashSource
}

// New parses every page template from the embedded filesystem, each
// paired with base.html. flashes may be nil.
func New(flashes FlashSource) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		flashes:   flashes,
	}

	funcMap := template.FuncMap{
		// markdown renders a comment body; raw HTML in it is dropped.
		"markdown": func(src string) template.HTML {
			out, err := markdown.ToHTML(src)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(src))
			}
			return template.HTML(out)
		},
		"canCreateRestaurant": auth.CanCreateRestaurant,
		"canMutateRestaurant": auth.CanMutateRestaurant,
		"canComment":          auth.CanComment,
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		name := path.Base(page)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(
			templateFS, "templates/base.html", page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders a full page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full page with the given status code. User, CSRF
// token and pending flashes are filled in from the request.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &PageData{}
	}

	ctx := r.Context()
	data.CSRFToken = middleware.CSRFTokenFromCtx(ctx)
	if data.User == nil {
		data.User = middleware.UserFromCtx(ctx)
	}
	data.PendingSecondFactor = middleware.PendingSecondFactor(ctx)

	if rn.flashes != nil {
		flashes, err := rn.flashes.PopFlashes(ctx, w, r)
		if err != nil {
			slog.Warn("pop flashes failed", "error", err, "request_id", middleware.RequestIDFromCtx(ctx))
		}
		data.Flashes = append(data.Flashes, flashes...)
	}

	// Render into a buffer so a template error never leaves a half page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the error page with status 404.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.PageStatus(w, r, http.StatusNotFound, "error", &PageData{
		Title: "Not Found",
		Data:  map[string]any{"Message": "The page you are looking for does not exist."},
	})
}
