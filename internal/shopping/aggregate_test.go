package shopping

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dukerupert/foodgram/internal/model"
)

type fakeSource struct {
	lines []model.IngredientLine
	err   error
	calls int
}

func (f *fakeSource) IngredientLinesForUser(_ context.Context, _ int64) ([]model.IngredientLine, error) {
	f.calls++
	return f.lines, f.err
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		lines []model.IngredientLine
		want  []Item
	}{
		{
			name:  "empty cart",
			lines: nil,
			want:  []Item{},
		},
		{
			name: "shared ingredient is summed",
			lines: []model.IngredientLine{
				{Name: "sugar", Unit: "g", Amount: 100},
				{Name: "sugar", Unit: "g", Amount: 50},
			},
			want: []Item{{Name: "sugar", Unit: "g", TotalAmount: 150}},
		},
		{
			name: "disjoint recipes keep every ingredient",
			lines: []model.IngredientLine{
				{Name: "flour", Unit: "g", Amount: 200},
				{Name: "egg", Unit: "pcs", Amount: 2},
				{Name: "milk", Unit: "ml", Amount: 300},
				{Name: "salt", Unit: "pinch", Amount: 1},
			},
			want: []Item{
				{Name: "flour", Unit: "g", TotalAmount: 200},
				{Name: "egg", Unit: "pcs", TotalAmount: 2},
				{Name: "milk", Unit: "ml", TotalAmount: 300},
				{Name: "salt", Unit: "pinch", TotalAmount: 1},
			},
		},
		{
			name: "first-seen order, not alphabetical",
			lines: []model.IngredientLine{
				{Name: "zucchini", Unit: "pcs", Amount: 1},
				{Name: "apple", Unit: "pcs", Amount: 2},
				{Name: "zucchini", Unit: "pcs", Amount: 3},
				{Name: "banana", Unit: "pcs", Amount: 4},
				{Name: "apple", Unit: "pcs", Amount: 5},
			},
			want: []Item{
				{Name: "zucchini", Unit: "pcs", TotalAmount: 4},
				{Name: "apple", Unit: "pcs", TotalAmount: 7},
				{Name: "banana", Unit: "pcs", TotalAmount: 4},
			},
		},
		{
			name: "first unit wins for a name",
			lines: []model.IngredientLine{
				{Name: "milk", Unit: "ml", Amount: 200},
				{Name: "milk", Unit: "cup", Amount: 1},
			},
			want: []Item{{Name: "milk", Unit: "ml", TotalAmount: 201}},
		},
		{
			name: "large amounts are exact",
			lines: []model.IngredientLine{
				{Name: "rice", Unit: "g", Amount: 1 << 40},
				{Name: "rice", Unit: "g", Amount: 1<<40 + 1},
			},
			want: []Item{{Name: "rice", Unit: "g", TotalAmount: 1<<41 + 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.lines)
			if got == nil {
				t.Fatal("Aggregate returned nil, want non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregateNoDuplicateNames(t *testing.T) {
	var lines []model.IngredientLine
	for i := 0; i < 300; i++ {
		lines = append(lines, model.IngredientLine{
			Name:   []string{"a", "b", "c", "d", "e"}[i%5],
			Unit:   "g",
			Amount: int64(i + 1),
		})
	}

	got := Aggregate(lines)
	seen := map[string]bool{}
	var sum int64
	for _, it := range got {
		if seen[it.Name] {
			t.Fatalf("duplicate name %q in output", it.Name)
		}
		seen[it.Name] = true
		sum += it.TotalAmount
	}
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
	// 1 + 2 + ... + 300
	if sum != 45150 {
		t.Errorf("sum of totals = %d, want 45150", sum)
	}
}

func TestAggregatorForUserIsStable(t *testing.T) {
	src := &fakeSource{lines: []model.IngredientLine{
		{Name: "onion", Unit: "pcs", Amount: 1},
		{Name: "garlic", Unit: "clove", Amount: 2},
		{Name: "onion", Unit: "pcs", Amount: 2},
	}}
	agg := NewAggregator(src)

	first, err := agg.ForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	second, err := agg.ForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("output changed between calls: %+v vs %+v", first, second)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want a fresh read per call", src.calls)
	}
}

func TestAggregatorForUserError(t *testing.T) {
	boom := errors.New("db down")
	agg := NewAggregator(&fakeSource{err: boom})

	_, err := agg.ForUser(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
