package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

const tokenScheme = "Token"

// TokenFromRequest reads "Authorization: Token <key>", falling back to the
// token query parameter for clients that cannot set headers (websockets).
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, key, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && strings.EqualFold(scheme, tokenScheme) {
			return strings.TrimSpace(key)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Authenticate resolves the request's token, if any, and populates
// AuthContext. Requests without a token pass through anonymously; a token
// that does not resolve to a live user is rejected with 401.
func Authenticate(tokenStore *store.TokenStore, userStore *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" && r.URL.Query().Get("token") == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := TokenFromRequest(r)
			if key == "" {
				unauthorized(w, "invalid token header")
				return
			}

			tok, err := tokenStore.GetByKey(r.Context(), key)
			if err != nil {
				logger.Error("lookup token", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if tok == nil {
				unauthorized(w, "invalid token")
				return
			}

			user, err := userStore.GetByID(r.Context(), tok.UserID)
			if err != nil {
				logger.Error("lookup token user", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil {
				unauthorized(w, "invalid token")
				return
			}

			ac := auth.AuthContext{
				UserID:  user.ID,
				IsAdmin: user.IsAdmin,
				TokenID: tok.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401. It must run after
// Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			unauthorized(w, "authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", tokenScheme)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
