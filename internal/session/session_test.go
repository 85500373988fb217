// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testStore returns a Store on an in-process Valkey stand-in.
func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, false), mr
}

// withCookies copies the Set-Cookie headers of rec onto a new request.
func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

func TestSaveAndGet(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := store.Save(ctx, w, r, &Data{Token: "abc"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected %s cookie, got %v", CookieName, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if !mr.Exists(keyPrefix + cookies[0].Value) {
		t.Error("session key missing in valkey")
	}

	data, err := store.Get(ctx, withCookies(w))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data == nil || data.Token != "abc" {
		t.Fatalf("Get = %+v, want token abc", data)
	}
}

func TestGetWithoutCookie(t *testing.T) {
	store, _ := testStore(t)
	data, err := store.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || data != nil {
		t.Fatalf("Get = %v, %v; want nil, nil", data, err)
	}
}

func TestSaveReusesLiveSession(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	_ = store.Save(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil), &Data{Token: "a"})
	r := withCookies(w)

	w2 := httptest.NewRecorder()
	if err := store.Save(ctx, w2, r, &Data{Token: "b"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("saving a live session must not issue a new cookie")
	}

	data, _ := store.Get(ctx, r)
	if data.Token != "b" {
		t.Errorf("token = %q, want b", data.Token)
	}
}

func TestRenewIssuesNewID(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	_ = store.Save(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil), &Data{})
	r := withCookies(w)
	oldID := cookieID(r)

	w2 := httptest.NewRecorder()
	if err := store.Renew(ctx, w2, r, &Data{Token: "fresh"}); err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if mr.Exists(keyPrefix + oldID) {
		t.Error("old session must be deleted")
	}
	newID := cookieID(withCookies(w2))
	if newID == "" || newID == oldID {
		t.Errorf("expected a new session id, got %q", newID)
	}
}

func TestFlashes(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := store.AddFlash(ctx, w, r, Flash{Type: "success", Message: "Account created"}); err != nil {
		t.Fatalf("AddFlash: %v", err)
	}

	next := withCookies(w)
	flashes, err := store.PopFlashes(ctx, httptest.NewRecorder(), next)
	if err != nil {
		t.Fatalf("PopFlashes: %v", err)
	}
	if len(flashes) != 1 || flashes[0].Message != "Account created" {
		t.Fatalf("flashes = %+v", flashes)
	}

	again, _ := store.PopFlashes(ctx, httptest.NewRecorder(), next)
	if len(again) != 0 {
		t.Errorf("flashes must be shown once, got %+v", again)
	}
}

func TestDestroy(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	_ = store.Save(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil), &Data{Token: "x"})
	r := withCookies(w)

	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, r); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if mr.Exists(keyPrefix + cookieID(r)) {
		t.Error("session key must be removed")
	}
	cookies := w2.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("expected an expiring cookie, got %v", cookies)
	}

	data, _ := store.Get(ctx, r)
	if data != nil {
		t.Error("destroyed session must not load")
	}
}
