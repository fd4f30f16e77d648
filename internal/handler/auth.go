package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

type AuthHandler struct {
	userStore  *store.UserStore
	tokenStore *store.TokenStore
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ts *store.TokenStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, tokenStore: ts, logger: logger}
}

// Login exchanges email and password for an API token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("get user by email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if user == nil || !h.userStore.CheckPassword(user, req.Password) {
		writeError(w, http.StatusBadRequest, "unable to log in with provided credentials")
		return
	}

	tok, err := h.tokenStore.Create(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("create token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": tok.Key})
}

// Logout revokes the token used for the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.tokenStore.Delete(r.Context(), ac.TokenID); err != nil {
		h.logger.Error("delete token", "user_id", ac.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
