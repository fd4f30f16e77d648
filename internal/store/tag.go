package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(scanner interface{ Scan(...any) error }) (*model.Tag, error) {
	var t model.Tag
	if err := scanner.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
		return nil, err
	}
	return &t, nil
}

const tagCols = `id, name, color, slug`

func (s *TagStore) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagCols+` FROM tags ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func (s *TagStore) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagCols+` FROM tags WHERE id = ?`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// CountExisting returns how many of the given (distinct) ids exist.
func (s *TagStore) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return n, nil
}

// Create inserts a tag. Any clash on name, color or slug yields ErrDuplicate.
func (s *TagStore) Create(ctx context.Context, name, color, slug string) (*model.Tag, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)`,
		name, color, slug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}
