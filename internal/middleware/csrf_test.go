// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfHandler(secure bool, seen *string) http.Handler {
	return NewCSRF(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = CSRFTokenFromCtx(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNewCSRFSecureFlag(t *testing.T) {
	for _, secure := range []bool{true, false} {
		rr := httptest.NewRecorder()
		csrfHandler(secure, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login/", nil))

		var found *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == CSRFCookieName {
				found = c
			}
		}
		if found == nil {
			t.Fatalf("secure=%v: CSRF cookie not set", secure)
		}
		if found.Secure != secure {
			t.Errorf("cookie Secure: got %v, want %v", found.Secure, secure)
		}
		if !found.HttpOnly {
			t.Error("CSRF cookie should be HttpOnly")
		}
	}
}

func TestCSRFTokenInContext(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	rr := httptest.NewRecorder()
	csrfHandler(false, &seen).ServeHTTP(rr, req)

	if seen != "abc123" {
		t.Errorf("context token: got %q, want abc123", seen)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("existing cookie must not be replaced")
	}
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login/", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	rr := httptest.NewRecorder()
	csrfHandler(false, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestCSRFAcceptsFormField(t *testing.T) {
	form := url.Values{CSRFFormField: {"abc123"}}
	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	rr := httptest.NewRecorder()
	csrfHandler(false, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestCSRFAcceptsHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout/", nil)
	req.Header.Set(CSRFHeaderName, "abc123")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	rr := httptest.NewRecorder()
	csrfHandler(false, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestCSRFRejectsMismatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout/", nil)
	req.Header.Set(CSRFHeaderName, "other")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	rr := httptest.NewRecorder()
	csrfHandler(false, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}
