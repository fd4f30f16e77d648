package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.TokenStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewTokenStore(db), store.NewUserStore(db)
}

func newAuthenticate(ts *store.TokenStore, us *store.UserStore) func(http.Handler) http.Handler {
	return Authenticate(ts, us, slog.Default())
}

func TestAuthenticateAnonymous(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)

	reached := false
	handler := newAuthenticate(ts, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if _, ok := auth.FromContext(r.Context()); ok {
			t.Error("anonymous request should have no AuthContext")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !reached {
		t.Error("anonymous request should reach handler")
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)

	handler := newAuthenticate(ts, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	for _, header := range []string{"Token nope", "Bearer abc", "Token"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)
	ctx := context.Background()

	user, err := us.Create(ctx, "cook@example.com", "cook", "A", "B", "secret-pass")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok, err := ts.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	var got auth.AuthContext
	handler := newAuthenticate(ts, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token "+tok.Key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}
	if got.TokenID != tok.ID {
		t.Errorf("TokenID = %d, want %d", got.TokenID, tok.ID)
	}
	if got.IsAdmin {
		t.Error("IsAdmin should be false")
	}
}

func TestAuthenticateQueryToken(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)
	ctx := context.Background()

	user, _ := us.Create(ctx, "cook@example.com", "cook", "A", "B", "secret-pass")
	if err := us.SetAdmin(ctx, user.ID, true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	tok, _ := ts.Create(ctx, user.ID)

	var got auth.AuthContext
	handler := newAuthenticate(ts, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/feed?token="+tok.Key, nil))

	if got.UserID != user.ID || !got.IsAdmin {
		t.Errorf("AuthContext = %+v, want admin user %d", got, user.ID)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"header", "Token abc", "", "abc"},
		{"lowercase scheme", "token abc", "", "abc"},
		{"wrong scheme", "Bearer abc", "", ""},
		{"query", "", "xyz", "xyz"},
		{"header wins", "Token abc", "xyz", "abc"},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest("GET", url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("TokenFromRequest = %q, want %q", got, tt.want)
			}
		})
	}
}
