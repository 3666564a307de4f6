// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"stitchtales/internal/handlers"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

// bareHandlers returns handler groups without services; fine for route
// inspection, never for serving.
func bareHandlers() Handlers {
	return Handlers{
		Auth:       handlers.NewAuth(nil, nil, nil),
		Posts:      handlers.NewPosts(nil, nil, nil, nil),
		Taxonomy:   handlers.NewTaxonomy(nil, nil, nil),
		Account:    handlers.NewAccount(nil, nil, nil, nil),
		Moderation: handlers.NewModeration(nil, nil),
		Catalog:    handlers.NewCatalog(nil, nil, "http://localhost"),
	}
}

func TestRoutesRegistered(t *testing.T) {
	r := New(Options{}, bareHandlers())

	registered := map[string]bool{}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	want := []string{
		"GET /health",
		"GET /sitemap.xml",
		"GET /robots.txt",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"POST /api/auth/logout",
		"POST /api/auth/token",
		"POST /api/auth/2fa/setup",
		"POST /api/auth/2fa/enable",
		"POST /api/auth/2fa/verify",
		"GET /api/posts/",
		"POST /api/posts/",
		"GET /api/posts/{slug}",
		"PUT /api/posts/{slug}",
		"DELETE /api/posts/{slug}",
		"PUT /api/posts/{slug}/cover",
		"GET /api/posts/{slug}/related",
		"GET /api/posts/{slug}/comments",
		"POST /api/posts/{slug}/comments",
		"POST /api/posts/{slug}/like",
		"GET /api/categories/",
		"GET /api/categories/{slug}",
		"GET /api/categories/{slug}/posts",
		"POST /api/categories/",
		"PUT /api/categories/{id}",
		"DELETE /api/categories/{id}",
		"GET /api/tags/",
		"GET /api/tags/{slug}/posts",
		"DELETE /api/tags/{id}",
		"GET /api/authors/{username}",
		"GET /api/dashboard",
		"GET /api/me/posts",
		"GET /api/profile",
		"PUT /api/profile",
		"PUT /api/profile/avatar",
		"GET /api/moderation/comments/",
		"POST /api/moderation/comments/{id}/approve",
		"DELETE /api/moderation/comments/{id}",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route not registered: %s", route)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	r := New(Options{}, bareHandlers())

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodPut, "/api/profile"},
		{http.MethodGet, "/api/moderation/comments"},
		{http.MethodPost, "/api/auth/2fa/setup"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rec.Code)
			}
		})
	}
}
