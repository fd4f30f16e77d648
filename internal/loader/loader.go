// Package loader imports reference data (ingredients and tags) into the
// database. Every import is idempotent: rows that already exist are
// skipped and counted.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dukerupert/foodgram/internal/store"
)

// Result counts what an import did.
type Result struct {
	Added   int
	Skipped int
}

var (
	hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	slugRegexp     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientsJSON reads [{"name": ..., "measurement_unit": ...}].
func IngredientsJSON(ctx context.Context, s *store.IngredientStore, r io.Reader) (Result, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return Result{}, fmt.Errorf("decode ingredients: %w", err)
	}
	return addIngredients(ctx, s, records)
}

// IngredientsCSV reads "name,unit" rows. A leading header row naming the
// columns is skipped.
func IngredientsCSV(ctx context.Context, s *store.IngredientStore, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var records []ingredientRecord
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read ingredients csv: %w", err)
		}
		if line == 1 && strings.EqualFold(row[0], "name") {
			continue
		}
		records = append(records, ingredientRecord{Name: row[0], MeasurementUnit: row[1]})
	}
	return addIngredients(ctx, s, records)
}

func addIngredients(ctx context.Context, s *store.IngredientStore, records []ingredientRecord) (Result, error) {
	var res Result
	for i, rec := range records {
		name := strings.TrimSpace(rec.Name)
		unit := strings.TrimSpace(rec.MeasurementUnit)
		if name == "" || unit == "" {
			return res, fmt.Errorf("ingredient %d: name and measurement_unit are required", i+1)
		}
		added, err := s.Ensure(ctx, name, unit)
		if err != nil {
			return res, fmt.Errorf("ingredient %q: %w", name, err)
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

type tagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// TagsJSON reads [{"name": ..., "color": "#RRGGBB", "slug": ...}].
func TagsJSON(ctx context.Context, s *store.TagStore, r io.Reader) (Result, error) {
	var records []tagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return Result{}, fmt.Errorf("decode tags: %w", err)
	}

	var res Result
	for i, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		rec.Slug = strings.TrimSpace(rec.Slug)
		switch {
		case rec.Name == "":
			return res, fmt.Errorf("tag %d: name is required", i+1)
		case !hexColorRegexp.MatchString(rec.Color):
			return res, fmt.Errorf("tag %q: color must be #RRGGBB", rec.Name)
		case !slugRegexp.MatchString(rec.Slug):
			return res, fmt.Errorf("tag %q: invalid slug %q", rec.Name, rec.Slug)
		}

		_, err := s.Create(ctx, rec.Name, strings.ToUpper(rec.Color), rec.Slug)
		if errors.Is(err, store.ErrDuplicate) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("tag %q: %w", rec.Name, err)
		}
		res.Added++
	}
	return res, nil
}

// EnsureAdmin creates the user if the email is unknown and grants admin
// rights. An existing user keeps their password.
func EnsureAdmin(ctx context.Context, s *store.UserStore, email, username, password string) (created bool, err error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if u == nil {
		if len(password) < 8 {
			return false, errors.New("admin password must be at least 8 characters")
		}
		u, err = s.Create(ctx, email, username, "Admin", "Admin", password)
		if err != nil {
			return false, fmt.Errorf("create admin: %w", err)
		}
		created = true
	}
	if err := s.SetAdmin(ctx, u.ID, true); err != nil {
		return created, err
	}
	return created, nil
}
