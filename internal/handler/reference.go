package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
)

// TagHandler serves the read-only tag catalogue.
type TagHandler struct {
	store  *store.TagStore
	logger *slog.Logger
}

func NewTagHandler(s *store.TagStore, logger *slog.Logger) *TagHandler {
	return &TagHandler{store: s, logger: logger}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list tags", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	tag, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get tag", "tag_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if tag == nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// IngredientHandler serves the read-only ingredient catalogue.
type IngredientHandler struct {
	store  *store.IngredientStore
	logger *slog.Logger
}

func NewIngredientHandler(s *store.IngredientStore, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{store: s, logger: logger}
}

// List returns all ingredients, or those whose name starts with ?name=
// (case-insensitive).
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("name"))
	ingredients, err := h.store.Search(r.Context(), prefix)
	if err != nil {
		h.logger.Error("search ingredients", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list ingredients")
		return
	}
	if ingredients == nil {
		ingredients = []model.Ingredient{}
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "ingredient not found")
		return
	}
	ing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get ingredient", "ingredient_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get ingredient")
		return
	}
	if ing == nil {
		writeError(w, http.StatusNotFound, "ingredient not found")
		return
	}
	writeJSON(w, http.StatusOK, ing)
}
