package model

import "time"

type Recipe struct {
	ID          int64              `json:"id"`
	AuthorID    int64              `json:"author_id"`
	Name        string             `json:"name"`
	Image       string             `json:"image"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"created_at"`
}

// RecipeInput carries everything needed to create or replace a recipe.
// Image is a storage key; an empty Image on update keeps the current one.
type RecipeInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// RecipeFilter narrows a recipe listing. Zero values mean "no filter".
type RecipeFilter struct {
	TagSlugs         []string
	AuthorID         int64
	FavoritedBy      int64
	InShoppingCartOf int64
	Limit            int
	Offset           int
}
