package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
	ws "github.com/dukerupert/foodgram/internal/websocket"
)

const maxRecipeNameLen = 200

type RecipeHandler struct {
	recipes     *store.RecipeStore
	tags        *store.TagStore
	ingredients *store.IngredientStore
	subs        *store.SubscriptionStore
	images      *media.Processor
	presenter   *Presenter
	hub         *ws.Hub
	baseURL     string
	logger      *slog.Logger
}

func NewRecipeHandler(
	rs *store.RecipeStore,
	ts *store.TagStore,
	is *store.IngredientStore,
	ss *store.SubscriptionStore,
	images *media.Processor,
	p *Presenter,
	hub *ws.Hub,
	baseURL string,
	logger *slog.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:     rs,
		tags:        ts,
		ingredients: is,
		subs:        ss,
		images:      images,
		presenter:   p,
		hub:         hub,
		baseURL:     baseURL,
		logger:      logger,
	}
}

type recipeRequest struct {
	Ingredients []model.IngredientAmount `json:"ingredients"`
	Tags        []int64                  `json:"tags"`
	Image       string                   `json:"image"`
	Name        string                   `json:"name"`
	Text        string                   `json:"text"`
	CookingTime int                      `json:"cooking_time"`
}

// validate checks the payload shape. References to tags and ingredients
// are checked against the database separately.
func (req *recipeRequest) validate(requireImage bool) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Text = strings.TrimSpace(req.Text)
	req.Image = strings.TrimSpace(req.Image)

	switch {
	case len(req.Ingredients) == 0:
		return errors.New("at least one ingredient is required")
	case len(req.Tags) == 0:
		return errors.New("at least one tag is required")
	case req.Name == "":
		return errors.New("name is required")
	case utf8.RuneCountInString(req.Name) > maxRecipeNameLen:
		return fmt.Errorf("name must be at most %d characters", maxRecipeNameLen)
	case req.Text == "":
		return errors.New("text is required")
	case req.CookingTime < 1:
		return errors.New("cooking_time must be at least 1")
	case requireImage && req.Image == "":
		return errors.New("image is required")
	}

	seen := make(map[int64]bool, len(req.Ingredients))
	for _, ia := range req.Ingredients {
		if ia.Amount < 1 {
			return errors.New("ingredient amount must be at least 1")
		}
		if seen[ia.IngredientID] {
			return fmt.Errorf("ingredient %d is listed more than once", ia.IngredientID)
		}
		seen[ia.IngredientID] = true
	}

	seenTags := make(map[int64]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return fmt.Errorf("tag %d is listed more than once", id)
		}
		seenTags[id] = true
	}
	return nil
}

// checkReferences returns a user-facing error when a tag or ingredient id
// does not exist.
func (h *RecipeHandler) checkReferences(ctx context.Context, req *recipeRequest) (string, error) {
	n, err := h.tags.CountExisting(ctx, req.Tags)
	if err != nil {
		return "", err
	}
	if n != len(req.Tags) {
		return "unknown tag id", nil
	}

	ids := make([]int64, len(req.Ingredients))
	for i, ia := range req.Ingredients {
		ids[i] = ia.IngredientID
	}
	n, err = h.ingredients.CountExisting(ctx, ids)
	if err != nil {
		return "", err
	}
	if n != len(ids) {
		return "unknown ingredient id", nil
	}
	return "", nil
}

// decodeRecipe parses, validates and reference-checks a recipe payload,
// writing the error response itself. ok is false when a response was sent.
func (h *RecipeHandler) decodeRecipe(w http.ResponseWriter, r *http.Request, requireImage bool) (recipeRequest, bool) {
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if err := req.validate(requireImage); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	msg, err := h.checkReferences(r.Context(), &req)
	if err != nil {
		h.logger.Error("check recipe references", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate recipe")
		return req, false
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return req, false
	}
	return req, true
}

// saveImage stores the uploaded image, writing the error response itself.
func (h *RecipeHandler) saveImage(w http.ResponseWriter, r *http.Request, dataURI string) (string, bool) {
	key, err := h.images.Save(r.Context(), dataURI)
	if errors.Is(err, media.ErrInvalidImage) {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if err != nil {
		h.logger.Error("save image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save image")
		return "", false
	}
	return key, true
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	viewerID := auth.UserID(ctx)
	q := r.URL.Query()
	f := model.RecipeFilter{
		TagSlugs: q["tags"],
		Limit:    p.Limit,
		Offset:   p.Offset(),
	}
	if v := q.Get("author"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author")
			return
		}
		f.AuthorID = id
	}
	if viewerID != 0 {
		if queryFlag(r, "is_favorited") {
			f.FavoritedBy = viewerID
		}
		if queryFlag(r, "is_in_shopping_cart") {
			f.InShoppingCartOf = viewerID
		}
	}

	recipes, total, err := h.recipes.List(ctx, f)
	if err != nil {
		h.logger.Error("list recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	if pageOutOfRange(p, total) {
		writeError(w, http.StatusNotFound, "invalid page")
		return
	}

	views, err := h.presenter.Recipes(ctx, viewerID, recipes)
	if err != nil {
		h.logger.Error("render recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, newPage(h.baseURL, r, p, total, views))
}

// loadRecipe resolves the {id} path value, writing 404 itself when the
// recipe does not exist.
func (h *RecipeHandler) loadRecipe(w http.ResponseWriter, r *http.Request) (*model.Recipe, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return nil, false
	}
	recipe, err := h.recipes.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get recipe", "recipe_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get recipe")
		return nil, false
	}
	if recipe == nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return nil, false
	}
	return recipe, true
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	h.writeRecipe(w, r, http.StatusOK, recipe)
}

func (h *RecipeHandler) writeRecipe(w http.ResponseWriter, r *http.Request, status int, recipe *model.Recipe) {
	view, err := h.presenter.Recipe(r.Context(), auth.UserID(r.Context()), recipe)
	if err != nil {
		h.logger.Error("render recipe", "recipe_id", recipe.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render recipe")
		return
	}
	writeJSON(w, status, view)
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecipe(w, r, true)
	if !ok {
		return
	}
	key, ok := h.saveImage(w, r, req.Image)
	if !ok {
		return
	}

	ctx := r.Context()
	authorID := auth.UserID(ctx)
	recipe, err := h.recipes.Create(ctx, authorID, model.RecipeInput{
		Name:        req.Name,
		Image:       key,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		h.images.Remove(ctx, key)
		h.logger.Error("create recipe", "author_id", authorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	h.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	h.notifySubscribers(ctx, recipe)
	h.writeRecipe(w, r, http.StatusCreated, recipe)
}

// notifySubscribers pushes a recipe_created event to the author's followers
// who are connected to the live feed.
func (h *RecipeHandler) notifySubscribers(ctx context.Context, recipe *model.Recipe) {
	ids, err := h.subs.SubscriberIDs(ctx, recipe.AuthorID)
	if err != nil {
		h.logger.Warn("list subscribers", "author_id", recipe.AuthorID, "error", err)
		return
	}
	h.hub.SendToUsers(ids, ws.NewMessage("recipe", "created", recipe.ID, map[string]any{
		"author_id": recipe.AuthorID,
		"name":      recipe.Name,
		"image":     h.images.URL(recipe.Image),
	}))
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if !auth.CanModify(ctx, existing.AuthorID) {
		writeError(w, http.StatusForbidden, "only the author can change this recipe")
		return
	}

	req, ok := h.decodeRecipe(w, r, false)
	if !ok {
		return
	}
	var key string
	if req.Image != "" {
		if key, ok = h.saveImage(w, r, req.Image); !ok {
			return
		}
	}

	recipe, err := h.recipes.Update(ctx, existing.ID, model.RecipeInput{
		Name:        req.Name,
		Image:       key,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		h.images.Remove(ctx, key)
		h.logger.Error("update recipe", "recipe_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}
	if key != "" && existing.Image != key {
		h.images.Remove(ctx, existing.Image)
	}
	h.writeRecipe(w, r, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadRecipe(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if !auth.CanModify(ctx, existing.AuthorID) {
		writeError(w, http.StatusForbidden, "only the author can delete this recipe")
		return
	}

	if err := h.recipes.Delete(ctx, existing.ID); err != nil {
		h.logger.Error("delete recipe", "recipe_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}
	h.images.Remove(ctx, existing.Image)
	h.logger.Info("recipe deleted", "recipe_id", existing.ID)
	w.WriteHeader(http.StatusNoContent)
}
