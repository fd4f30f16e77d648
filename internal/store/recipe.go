package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	err := scanner.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Image, &r.Text, &r.CookingTime, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const recipeCols = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.created_at`

// Create inserts the recipe with its tags and ingredient lines in one
// transaction.
func (s *RecipeStore) Create(ctx context.Context, authorID int64, in model.RecipeInput) (*model.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (author_id, name, image, text, cooking_time) VALUES (?, ?, ?, ?, ?)`,
		authorID, in.Name, in.Image, in.Text, in.CookingTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertRecipeRelations(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Update replaces the recipe's fields, tags and ingredient lines. An empty
// in.Image keeps the current image.
func (s *RecipeStore) Update(ctx context.Context, id int64, in model.RecipeInput) (*model.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, text = ?, cooking_time = ?, image = COALESCE(NULLIF(?, ''), image) WHERE id = ?`,
		in.Name, in.Text, in.CookingTime, in.Image, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear recipe ingredients: %w", err)
	}
	if err := insertRecipeRelations(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

func insertRecipeRelations(ctx context.Context, q queryer, recipeID int64, in model.RecipeInput) error {
	for _, tagID := range in.TagIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipeID, tagID,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert recipe tag: %w", err)
		}
	}
	for _, ia := range in.Ingredients {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`,
			recipeID, ia.IngredientID, ia.Amount,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert recipe ingredient: %w", err)
		}
	}
	return nil
}

func (s *RecipeStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// GetByID returns the recipe with tags and ingredients, or nil if missing.
func (s *RecipeStore) GetByID(ctx context.Context, id int64) (*model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeCols+` FROM recipes r WHERE r.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, nil
	}
	if err := s.loadRelations(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// Exists reports whether a recipe with id exists.
func (s *RecipeStore) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check recipe: %w", err)
	}
	return n > 0, nil
}

// List returns one page of recipes (newest first) matching f, fully loaded,
// and the total number of matches.
func (s *RecipeStore) List(ctx context.Context, f model.RecipeFilter) ([]model.Recipe, int, error) {
	var where []string
	var args []any

	if len(f.TagSlugs) > 0 {
		where = append(where, `r.id IN (SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}
	if f.AuthorID != 0 {
		where = append(where, `r.author_id = ?`)
		args = append(args, f.AuthorID)
	}
	if f.FavoritedBy != 0 {
		where = append(where, `r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)`)
		args = append(args, f.FavoritedBy)
	}
	if f.InShoppingCartOf != 0 {
		where = append(where, `r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)`)
		args = append(args, f.InShoppingCartOf)
	}

	clause := ""
	if len(where) > 0 {
		clause = ` WHERE ` + strings.Join(where, ` AND `)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeCols+` FROM recipes r`+clause+` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadRelations(ctx, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor returns the author's newest recipes without tags or
// ingredients. A negative limit means no limit; zero returns nothing.
func (s *RecipeStore) ListByAuthor(ctx context.Context, authorID int64, limit int) ([]model.Recipe, error) {
	if limit < 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeCols+` FROM recipes r WHERE r.author_id = ? ORDER BY r.created_at DESC, r.id DESC LIMIT ?`,
		authorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipes by author: %w", err)
	}
	return collectRecipes(rows)
}

func (s *RecipeStore) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recipes by author: %w", err)
	}
	return n, nil
}

func collectRecipes(rows *sql.Rows) ([]model.Recipe, error) {
	defer rows.Close()
	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// loadRelations fills Tags and Ingredients for every recipe in place.
func (s *RecipeStore) loadRelations(ctx context.Context, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	index := make(map[int64]int, len(recipes))
	ids := make([]int64, len(recipes))
	for i := range recipes {
		index[recipes[i].ID] = i
		ids[i] = recipes[i].ID
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.RecipeIngredient{}
	}
	in := placeholders(len(ids))

	tagRows, err := s.db.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+in+`) ORDER BY t.id ASC`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	for tagRows.Next() {
		var recipeID int64
		var t model.Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			tagRows.Close()
			return fmt.Errorf("scan recipe tag: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Tags = append(r.Tags, t)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}

	ingRows, err := s.db.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (`+in+`) ORDER BY ri.id ASC`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var recipeID int64
		var ri model.RecipeIngredient
		if err := ingRows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return fmt.Errorf("scan recipe ingredient: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Ingredients = append(r.Ingredients, ri)
	}
	return ingRows.Err()
}
