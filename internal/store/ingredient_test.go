package store

import (
	"context"
	"errors"
	"testing"
)

func TestIngredientSearch(t *testing.T) {
	db := setupTestDB(t)
	is := NewIngredientStore(db)
	ctx := context.Background()

	mustIngredient(t, db, "sugar", "g")
	mustIngredient(t, db, "Salt", "g")
	mustIngredient(t, db, "salmon", "g")
	mustIngredient(t, db, "100% juice", "ml")
	mustIngredient(t, db, "Молоко", "мл")
	mustIngredient(t, db, "молочный шоколад", "г")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"sa", []string{"salmon", "Salt"}},
		{"SA", []string{"salmon", "Salt"}},
		{"sug", []string{"sugar"}},
		{"100%", []string{"100% juice"}},
		{"мол", []string{"Молоко", "молочный шоколад"}},
		{"МОЛО", []string{"Молоко", "молочный шоколад"}},
		{"Молок", []string{"Молоко"}},
		{"%", nil},
		{"x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := is.Search(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results %+v, want %v", len(got), got, tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("result[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}

	all, _ := is.Search(ctx, "")
	if len(all) != 6 {
		t.Errorf("empty prefix returned %d, want 6", len(all))
	}
}

func TestIngredientEnsureIsIdempotent(t *testing.T) {
	is := NewIngredientStore(setupTestDB(t))
	ctx := context.Background()

	added, err := is.Ensure(ctx, "flour", "g")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !added {
		t.Error("first Ensure should add")
	}
	added, err = is.Ensure(ctx, "flour", "g")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if added {
		t.Error("second Ensure should not add")
	}
	added, _ = is.Ensure(ctx, "flour", "cup")
	if !added {
		t.Error("same name with another unit should add")
	}
}

func TestIngredientCountExisting(t *testing.T) {
	db := setupTestDB(t)
	is := NewIngredientStore(db)
	ctx := context.Background()

	a := mustIngredient(t, db, "egg", "pcs")
	b := mustIngredient(t, db, "milk", "ml")

	n, err := is.CountExisting(ctx, []int64{a.ID, b.ID, 999})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	got, _ := is.GetByID(ctx, a.ID)
	if got == nil || got.MeasurementUnit != "pcs" {
		t.Errorf("get by id = %+v", got)
	}
}

func TestTagStore(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTagStore(db)
	ctx := context.Background()

	breakfast := mustTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	mustTag(t, db, "Lunch", "#49B64E", "lunch")

	if _, err := ts.Create(ctx, "Other", "#E26C2D", "other"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate color err = %v, want ErrDuplicate", err)
	}

	tags, err := ts.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 2 || tags[0].Slug != "breakfast" {
		t.Errorf("tags = %+v", tags)
	}

	got, _ := ts.GetByID(ctx, breakfast.ID)
	if got == nil || got.Color != "#E26C2D" {
		t.Errorf("get by id = %+v", got)
	}

	n, _ := ts.CountExisting(ctx, []int64{breakfast.ID, 42})
	if n != 1 {
		t.Errorf("count existing = %d, want 1", n)
	}
}
