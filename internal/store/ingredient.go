package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
)

type IngredientStore struct {
	db *sql.DB
}

func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

func scanIngredient(scanner interface{ Scan(...any) error }) (*model.Ingredient, error) {
	var i model.Ingredient
	if err := scanner.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
		return nil, err
	}
	return &i, nil
}

const ingredientCols = `id, name, measurement_unit`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns ingredients whose name starts with prefix, ignoring case in
// any script, ordered by name. An empty prefix lists everything.
func (s *IngredientStore) Search(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ingredientCols+` FROM ingredients
		 WHERE fold(name) LIKE ? ESCAPE '\'
		 ORDER BY fold(name) ASC, id ASC`,
		likeEscaper.Replace(strings.ToLower(prefix))+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ingredients = append(ingredients, *i)
	}
	return ingredients, rows.Err()
}

func (s *IngredientStore) GetByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE id = ?`, id)
	i, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return i, nil
}

// CountExisting returns how many of the given (distinct) ids exist.
func (s *IngredientStore) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredients WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ingredients: %w", err)
	}
	return n, nil
}

// Ensure inserts the ingredient unless the same (name, unit) pair exists.
// It reports whether a row was added.
func (s *IngredientStore) Ensure(ctx context.Context, name, unit string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)
		 ON CONFLICT (name, measurement_unit) DO NOTHING`,
		name, unit,
	)
	if err != nil {
		return false, fmt.Errorf("insert ingredient: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
