package model

type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredient is one line item of a recipe: an ingredient with its amount.
type RecipeIngredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

// IngredientAmount is the write-side form of a line item.
type IngredientAmount struct {
	IngredientID int64 `json:"id"`
	Amount       int64 `json:"amount"`
}

// IngredientLine is one (name, unit, amount) row read from a user's cart.
type IngredientLine struct {
	Name   string
	Unit   string
	Amount int64
}
