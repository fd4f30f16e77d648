package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

const (
	maxEmailLen    = 254
	maxNameLen     = 150
	minPasswordLen = 8
)

var usernameRegexp = regexp.MustCompile(`^[\w.@+-]+$`)

type UserHandler struct {
	userStore *store.UserStore
	presenter *Presenter
	baseURL   string
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, p *Presenter, baseURL string, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, presenter: p, baseURL: baseURL, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (req *registerRequest) validate() error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	switch {
	case req.Email == "":
		return errors.New("email is required")
	case utf8.RuneCountInString(req.Email) > maxEmailLen:
		return errors.New("email is too long")
	case !validEmail(req.Email):
		return errors.New("enter a valid email address")
	case req.Username == "":
		return errors.New("username is required")
	case utf8.RuneCountInString(req.Username) > maxNameLen:
		return errors.New("username is too long")
	case !usernameRegexp.MatchString(req.Username):
		return errors.New("username may contain only letters, digits and @/./+/-/_")
	case req.FirstName == "":
		return errors.New("first_name is required")
	case utf8.RuneCountInString(req.FirstName) > maxNameLen:
		return errors.New("first_name is too long")
	case req.LastName == "":
		return errors.New("last_name is required")
	case utf8.RuneCountInString(req.LastName) > maxNameLen:
		return errors.New("last_name is too long")
	}
	return validatePassword(req.Password)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(pw) == "" {
		return errors.New("password must not be blank")
	}
	return nil
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if exists, err := h.userStore.EmailExists(ctx, req.Email); err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	} else if exists {
		writeError(w, http.StatusBadRequest, "a user with that email already exists")
		return
	}
	if exists, err := h.userStore.UsernameExists(ctx, req.Username); err != nil {
		h.logger.Error("check username", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	} else if exists {
		writeError(w, http.StatusBadRequest, "a user with that username already exists")
		return
	}

	user, err := h.userStore.Create(ctx, req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "a user with that email or username already exists")
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"email":      user.Email,
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := h.userStore.List(r.Context(), p.Limit, p.Offset())
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if pageOutOfRange(p, total) {
		writeError(w, http.StatusNotFound, "invalid page")
		return
	}

	views, err := h.presenter.Users(r.Context(), auth.UserID(r.Context()), users)
	if err != nil {
		h.logger.Error("render users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, newPage(h.baseURL, r, p, total, views))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	h.writeUser(w, r, id)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, auth.UserID(r.Context()))
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id int64) {
	user, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get user", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	view, err := h.presenter.User(r.Context(), auth.UserID(r.Context()), user)
	if err != nil {
		h.logger.Error("render user", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword     string `json:"new_password"`
		CurrentPassword string `json:"current_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" {
		writeError(w, http.StatusBadRequest, "current_password is required")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	user, err := h.userStore.GetByID(ctx, auth.UserID(ctx))
	if err != nil || user == nil {
		h.logger.Error("get current user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}
	if !h.userStore.CheckPassword(user, req.CurrentPassword) {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}

	if err := h.userStore.SetPassword(ctx, user.ID, req.NewPassword); err != nil {
		h.logger.Error("set password", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
