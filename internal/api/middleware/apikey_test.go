package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jays-visionAI/ZINC-sub003/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	auth := middleware.NewAPIKeyAuth(nil)
	if auth.Enabled() {
		t.Error("Enabled() = true with no keys, want false")
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/instances/i1/overrides", nil)
	w := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Disabled auth: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPIKeyAuth_Keys(t *testing.T) {
	auth := middleware.NewAPIKeyAuth([]string{"key-1", " key-2 ", ""})
	if !auth.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}
	handler := auth.Middleware(okHandler())

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"bearer", "Authorization", "Bearer key-1", http.StatusOK},
		{"x-api-key trimmed", "X-API-Key", "key-2", http.StatusOK},
		{"wrong key", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
		{"basic scheme", "Authorization", "Basic key-1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/overrides/allowed", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth_PublicPaths(t *testing.T) {
	handler := middleware.NewAPIKeyAuth([]string{"valid-key"}).Middleware(okHandler())

	for _, path := range []string{"/health", "/version", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Public path %q: status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}

	// CORS preflight carries no credentials.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runtime/resolve", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("OPTIONS preflight: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPIKeyAuth_AddRemoveKey(t *testing.T) {
	auth := middleware.NewAPIKeyAuth(nil)

	auth.AddKey("runtime-key")
	if !auth.Enabled() {
		t.Error("Enabled() = false after AddKey, want true")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runtime/tiers", nil)
	req.Header.Set("X-API-Key", "runtime-key")
	w := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Runtime key: status = %d, want %d", w.Code, http.StatusOK)
	}

	auth.RemoveKey("runtime-key")
	if auth.Enabled() {
		t.Error("Enabled() = true after removing last key, want false")
	}
}

func TestIdentity(t *testing.T) {
	var gotProject, gotUser string
	handler := middleware.Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProject = middleware.GetProjectID(r.Context())
		gotUser = middleware.GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overrides/allowed?project_id=q-proj&user_id=q-user", nil)
	req.Header.Set("X-User-Id", " header-user ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotProject != "q-proj" {
		t.Errorf("GetProjectID() = %q, want %q", gotProject, "q-proj")
	}
	if gotUser != "header-user" {
		t.Errorf("GetUserID() = %q, want %q", gotUser, "header-user")
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if gotProject != "" || gotUser != middleware.DefaultUserID {
		t.Errorf("no identity: project=%q user=%q, want \"\" and %q", gotProject, gotUser, middleware.DefaultUserID)
	}
}
