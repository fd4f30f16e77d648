package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

// recipeList is a per-user set of recipes backed by a (user_id, recipe_id)
// table with a unique pair constraint. Favorites and the shopping cart are
// both recipe lists.
type recipeList struct {
	db    *sql.DB
	table string
}

// Add puts the recipe on the user's list. A repeated add returns
// ErrDuplicate and leaves the list unchanged.
func (l recipeList) Add(ctx context.Context, userID, recipeID int64) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO `+l.table+` (user_id, recipe_id) VALUES (?, ?)`,
		userID, recipeID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s entry: %w", l.table, err)
	}
	return nil
}

// Remove deletes the entry and reports whether one existed.
func (l recipeList) Remove(ctx context.Context, userID, recipeID int64) (bool, error) {
	result, err := l.db.ExecContext(ctx,
		`DELETE FROM `+l.table+` WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	)
	if err != nil {
		return false, fmt.Errorf("delete %s entry: %w", l.table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (l recipeList) Contains(ctx context.Context, userID, recipeID int64) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+l.table+` WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s entry: %w", l.table, err)
	}
	return n > 0, nil
}

// ContainsAny returns the subset of recipeIDs on the user's list.
func (l recipeList) ContainsAny(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return found, nil
	}
	args := append([]any{userID}, int64Args(recipeIDs)...)
	rows, err := l.db.QueryContext(ctx,
		`SELECT recipe_id FROM `+l.table+` WHERE user_id = ? AND recipe_id IN (`+placeholders(len(recipeIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", l.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", l.table, err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

func (l recipeList) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+l.table+` WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s entries: %w", l.table, err)
	}
	return n, nil
}

type FavoriteStore struct {
	recipeList
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{recipeList{db: db, table: "favorites"}}
}

type CartStore struct {
	recipeList
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{recipeList{db: db, table: "shopping_cart"}}
}

// IngredientLinesForUser returns every ingredient line of every recipe in
// the user's cart, ordered by when the recipe was added and then by the
// recipe's own ingredient order.
func (s *CartStore) IngredientLinesForUser(ctx context.Context, userID int64) ([]model.IngredientLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.name, i.measurement_unit, ri.amount
		 FROM shopping_cart sc
		 JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE sc.user_id = ?
		 ORDER BY sc.id ASC, ri.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart ingredient lines: %w", err)
	}
	defer rows.Close()

	var lines []model.IngredientLine
	for rows.Next() {
		var l model.IngredientLine
		if err := rows.Scan(&l.Name, &l.Unit, &l.Amount); err != nil {
			return nil, fmt.Errorf("scan cart ingredient line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
