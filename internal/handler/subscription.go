package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

type SubscriptionHandler struct {
	subs      *store.SubscriptionStore
	users     *store.UserStore
	presenter *Presenter
	baseURL   string
	logger    *slog.Logger
}

func NewSubscriptionHandler(ss *store.SubscriptionStore, us *store.UserStore, p *Presenter, baseURL string, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: ss, users: us, presenter: p, baseURL: baseURL, logger: logger}
}

// recipesLimit reads ?recipes_limit=. Absent gives -1, meaning no limit;
// an explicit 0 lists no recipes.
func recipesLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("recipes_limit")
	if v == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid recipes_limit")
	}
	return n, nil
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	userID := auth.UserID(ctx)
	authors, total, err := h.subs.ListAuthors(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		h.logger.Error("list subscriptions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if pageOutOfRange(p, total) {
		writeError(w, http.StatusNotFound, "invalid page")
		return
	}

	views := make([]subscriptionView, 0, len(authors))
	for i := range authors {
		v, err := h.presenter.Subscription(ctx, &authors[i], limit)
		if err != nil {
			h.logger.Error("render subscription", "author_id", authors[i].ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, newPage(h.baseURL, r, p, total, views))
}

func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	author, err := h.users.GetByID(ctx, authorID)
	if err != nil {
		h.logger.Error("get author", "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	if author == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	userID := auth.UserID(ctx)
	err = h.subs.Subscribe(ctx, userID, authorID)
	switch {
	case errors.Is(err, store.ErrSelfSubscription):
		writeError(w, http.StatusBadRequest, "you cannot subscribe to yourself")
		return
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "already subscribed to this user")
		return
	case err != nil:
		h.logger.Error("subscribe", "user_id", userID, "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	view, err := h.presenter.Subscription(ctx, author, limit)
	if err != nil {
		h.logger.Error("render subscription", "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	ctx := r.Context()
	author, err := h.users.GetByID(ctx, authorID)
	if err != nil {
		h.logger.Error("get author", "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	if author == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	userID := auth.UserID(ctx)
	removed, err := h.subs.Unsubscribe(ctx, userID, authorID)
	if err != nil {
		h.logger.Error("unsubscribe", "user_id", userID, "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	if !removed {
		writeError(w, http.StatusBadRequest, "not subscribed to this user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
