package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pennypilot/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestJWTMiddleware_MissingCookie(t *testing.T) {
	next, called := okHandler()
	rec := httptest.NewRecorder()

	JWTMiddleware(next).ServeHTTP(rec, httptest.NewRequest("GET", "/transactions/user", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := utils.SignToken(7, "jane", "jane@example.com", "user", "plus")
	require.NoError(t, err)

	var gotEmail, gotTier any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.Context().Value(utils.ContextKey("email"))
		gotTier = r.Context().Value(utils.ContextKey("tier"))
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest("GET", "/transactions/user", nil)
	r.AddCookie(&http.Cookie{Name: "Bearer", Value: signed})
	rec := httptest.NewRecorder()

	JWTMiddleware(next).ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.com", gotEmail)
	assert.Equal(t, "plus", gotTier)
}

func TestJWTMiddleware_TamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := utils.SignToken(7, "jane", "jane@example.com", "user", "free")
	require.NoError(t, err)

	next, called := okHandler()
	r := httptest.NewRequest("GET", "/transactions/user", nil)
	r.AddCookie(&http.Cookie{Name: "Bearer", Value: signed + "x"})
	rec := httptest.NewRecorder()

	JWTMiddleware(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddlewaresExcludePaths(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	wrapped := MiddlewaresExcludePaths(deny, "/users/login", "/subscriptions/webhook")

	tests := []struct {
		path     string
		wantCode int
	}{
		{path: "/users/login", wantCode: http.StatusOK},
		{path: "/subscriptions/webhook", wantCode: http.StatusOK},
		{path: "/subscriptions/status", wantCode: http.StatusUnauthorized},
		{path: "/transactions/user", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			next, _ := okHandler()
			rec := httptest.NewRecorder()
			wrapped(next).ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	next, _ := okHandler()
	rec := httptest.NewRecorder()

	SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
