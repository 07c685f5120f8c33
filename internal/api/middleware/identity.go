package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	// ProjectIDKey is the context key for the calling project.
	ProjectIDKey contextKey = "project_id"
	// UserIDKey is the context key for the editing user.
	UserIDKey contextKey = "user_id"
)

// DefaultUserID is recorded as the editor when a request names no user.
const DefaultUserID = "anonymous"

// Identity extracts the caller's project and user from the request.
// It checks the X-Project-Id / X-User-Id headers, then the project_id /
// user_id query parameters.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project := firstNonEmpty(r.Header.Get("X-Project-Id"), r.URL.Query().Get("project_id"))
		user := firstNonEmpty(r.Header.Get("X-User-Id"), r.URL.Query().Get("user_id"))

		ctx := r.Context()
		if project != "" {
			ctx = context.WithValue(ctx, ProjectIDKey, project)
		}
		if user != "" {
			ctx = context.WithValue(ctx, UserIDKey, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// GetProjectID retrieves the project id from the request context.
func GetProjectID(ctx context.Context) string {
	if v, ok := ctx.Value(ProjectIDKey).(string); ok {
		return v
	}
	return ""
}

// GetUserID retrieves the user id from the request context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return DefaultUserID
}
