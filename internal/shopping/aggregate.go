// Package shopping builds a user's shopping list from the recipes in their
// cart and renders it as a downloadable document.
package shopping

import (
	"context"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

// Item is one aggregated entry of the shopping list.
type Item struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	TotalAmount int64  `json:"total_amount"`
}

// LineSource supplies the raw ingredient lines of a user's cart.
type LineSource interface {
	IngredientLinesForUser(ctx context.Context, userID int64) ([]model.IngredientLine, error)
}

type Aggregator struct {
	source LineSource
}

func NewAggregator(source LineSource) *Aggregator {
	return &Aggregator{source: source}
}

// ForUser reads the user's cart and returns the merged shopping list.
func (a *Aggregator) ForUser(ctx context.Context, userID int64) ([]Item, error) {
	lines, err := a.source.IngredientLinesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	return Aggregate(lines), nil
}

// Aggregate merges lines by ingredient name, summing amounts. Names keep the
// order in which they were first seen and the unit of their first line.
// Units are not reconciled: same-named lines are assumed to share a unit.
func Aggregate(lines []model.IngredientLine) []Item {
	items := make([]Item, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.Name]; ok {
			items[i].TotalAmount += l.Amount
			continue
		}
		index[l.Name] = len(items)
		items = append(items, Item{Name: l.Name, Unit: l.Unit, TotalAmount: l.Amount})
	}
	return items
}
