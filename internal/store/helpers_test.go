package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), username+"@example.com", username, "First", "Last", "secret-pass")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustIngredient(t *testing.T, db *sql.DB, name, unit string) *model.Ingredient {
	t.Helper()
	ctx := context.Background()
	res, err := db.ExecContext(ctx, `INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`, name, unit)
	if err != nil {
		t.Fatalf("insert ingredient %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return &model.Ingredient{ID: id, Name: name, MeasurementUnit: unit}
}

func mustTag(t *testing.T, db *sql.DB, name, color, slug string) *model.Tag {
	t.Helper()
	tag, err := NewTagStore(db).Create(context.Background(), name, color, slug)
	if err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func mustRecipe(t *testing.T, db *sql.DB, authorID int64, name string, tagIDs []int64, lines ...model.IngredientAmount) *model.Recipe {
	t.Helper()
	r, err := NewRecipeStore(db).Create(context.Background(), authorID, model.RecipeInput{
		Name:        name,
		Image:       "recipes/" + name + ".png",
		Text:        "Cook it.",
		CookingTime: 10,
		TagIDs:      tagIDs,
		Ingredients: lines,
	})
	if err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return r
}
