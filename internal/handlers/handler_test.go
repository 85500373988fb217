// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests: the in-memory store, an in-process Valkey and a
// browser-like client that keeps cookies and echoes the CSRF token.
package handlers

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"menudir/internal/auth"
	"menudir/internal/directory"
	"menudir/internal/middleware"
	"menudir/internal/render"
	"menudir/internal/session"
	"menudir/internal/store/memory"
	"menudir/internal/twofactor"
)

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	Store  *memory.Manager
	Server *httptest.Server
	Clock  *testClock
}

// testClock is wall time shifted by an adjustable offset.
type testClock struct {
	mu     sync.Mutex
	offset time.Duration
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.offset)
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.offset += d
	c.mu.Unlock()
}

// fastHash keeps scrypt cheap in tests.
func fastHash(password string) (string, error) {
	return auth.HashPasswordWithParams(password, auth.ScryptParams{N: 16, R: 1, P: 1})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st := memory.New()
	sessions := session.NewStore(client, false)
	clock := &testClock{}
	manager := auth.NewManager(st, auth.WithClock(clock.Now))
	dir := directory.New(st, directory.WithPasswordHasher(fastHash))

	renderer, err := render.New(sessions)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	authH := NewAuth(renderer, sessions, manager, twofactor.New(st, "Menudir"), dir)
	dirH := NewDirectory(renderer, sessions, dir)
	api := NewAPI(st.Rows())

	r := chi.NewRouter()
	r.Use(middleware.NewCSRF(false))
	r.Use(middleware.LoadUser(sessions, manager))

	r.Get("/restaurant/", dirH.Restaurants)
	r.Get("/restaurant/{restaurant_id}/menu/", dirH.Menu)
	r.Get("/restaurant/JSON", api.Restaurants)
	r.Get("/restaurant/{restaurant_id}/menu/JSON", api.Menu)
	r.Get("/restaurant/{restaurant_id}/menu/{menu_id}/JSON", api.MenuItem)

	r.Get("/login/", authH.LoginPage)
	r.Post("/login/", authH.LoginSubmit)
	r.Get("/signup/", authH.SignupPage)
	r.Post("/signup/", authH.SignupSubmit)
	r.Post("/logout/", authH.LogoutSubmit)
	r.Get("/2fa/verify/", authH.TwoFAVerifyPage)
	r.Post("/2fa/verify/", authH.TwoFAVerifySubmit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/2fa/setup/", authH.TwoFASetupPage)
		r.Post("/2fa/setup/", authH.TwoFASetupSubmit)
		r.Post("/2fa/disable/", authH.TwoFADisable)
		r.Get("/settings/", authH.Settings)

		r.Get("/restaurant/new/", dirH.NewRestaurantPage)
		r.Post("/restaurant/new/", dirH.NewRestaurantSubmit)
		r.Post("/restaurant/{restaurant_id}/edit/", dirH.EditRestaurantSubmit)
		r.Post("/restaurant/{restaurant_id}/delete/", dirH.DeleteRestaurantSubmit)
		r.Get("/restaurant/{restaurant_id}/comment/new/", dirH.NewCommentPage)
		r.Post("/restaurant/{restaurant_id}/comment/new/", dirH.NewCommentSubmit)
		r.Post("/restaurant/{restaurant_id}/menu/new/", dirH.NewMenuItemSubmit)
		r.Get("/restaurant/{restaurant_id}/menu/{menu_id}/edit", dirH.EditMenuItemPage)
		r.Post("/restaurant/{restaurant_id}/menu/{menu_id}/edit", dirH.EditMenuItemSubmit)
		r.Post("/restaurant/{restaurant_id}/menu/{menu_id}/delete", dirH.DeleteMenuItemSubmit)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{Store: st, Server: srv, Clock: clock}
}

// browser is an HTTP client with its own cookie jar that does not follow
// redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (env *testEnv) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{
		t:    t,
		base: env.Server.URL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// get returns status, Location header and body.
func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		b.t.Fatalf("GET %s: %v", path, err)
	}
	return readResponse(b.t, resp)
}

// post submits a form with the CSRF token taken from the cookie jar.
func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(middleware.CSRFFormField, b.csrfToken())
	resp, err := b.client.PostForm(b.base+path, form)
	if err != nil {
		b.t.Fatalf("POST %s: %v", path, err)
	}
	return readResponse(b.t, resp)
}

func (b *browser) csrfToken() string {
	b.t.Helper()
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	// Any GET issues the cookie.
	b.get("/login/")
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	b.t.Fatal("no csrf cookie issued")
	return ""
}

func readResponse(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

// signupAndLogin creates an account and logs the browser in.
func (b *browser) signupAndLogin(name, email, password string) {
	b.t.Helper()
	status, loc, _ := b.post("/signup/", url.Values{
		"name":                  {name},
		"email":                 {email},
		"password":              {password},
		"password_verification": {password},
	})
	if status != http.StatusSeeOther || loc != "/login/" {
		b.t.Fatalf("signup: status %d location %q", status, loc)
	}
	status, loc, _ = b.post("/login/", url.Values{"email": {email}, "password": {password}})
	if status != http.StatusSeeOther || loc != "/restaurant/" {
		b.t.Fatalf("login: status %d location %q", status, loc)
	}
}

func mustContain(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}
