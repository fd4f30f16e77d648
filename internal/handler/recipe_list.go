package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

// recipeSet is the part of a favorites or cart store the handler needs.
type recipeSet interface {
	Add(ctx context.Context, userID, recipeID int64) error
	Remove(ctx context.Context, userID, recipeID int64) (bool, error)
}

// RecipeListHandler adds and removes recipes on a per-user list. One
// instance serves favorites and another the shopping cart.
type RecipeListHandler struct {
	list      recipeSet
	recipes   *store.RecipeStore
	presenter *Presenter
	noun      string
	logger    *slog.Logger
}

// NewRecipeListHandler creates a handler for list. noun names the list in
// error messages, e.g. "favorites" or "shopping cart".
func NewRecipeListHandler(list recipeSet, rs *store.RecipeStore, p *Presenter, noun string, logger *slog.Logger) *RecipeListHandler {
	return &RecipeListHandler{list: list, recipes: rs, presenter: p, noun: noun, logger: logger}
}

func (h *RecipeListHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	ctx := r.Context()
	recipe, err := h.recipes.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("get recipe", "recipe_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add recipe")
		return
	}
	if recipe == nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}

	userID := auth.UserID(ctx)
	err = h.list.Add(ctx, userID, id)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "recipe is already in "+h.noun)
		return
	}
	if err != nil {
		h.logger.Error("add recipe", "list", h.noun, "recipe_id", id, "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add recipe")
		return
	}
	writeJSON(w, http.StatusCreated, h.presenter.ShortRecipe(recipe))
}

func (h *RecipeListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	ctx := r.Context()
	exists, err := h.recipes.Exists(ctx, id)
	if err != nil {
		h.logger.Error("check recipe", "recipe_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove recipe")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}

	userID := auth.UserID(ctx)
	removed, err := h.list.Remove(ctx, userID, id)
	if err != nil {
		h.logger.Error("remove recipe", "list", h.noun, "recipe_id", id, "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove recipe")
		return
	}
	if !removed {
		writeError(w, http.StatusBadRequest, "recipe is not in "+h.noun)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
