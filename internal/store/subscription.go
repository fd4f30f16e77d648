package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Subscribe makes userID follow authorID. Following yourself returns
// ErrSelfSubscription; following twice returns ErrDuplicate.
func (s *SubscriptionStore) Subscribe(ctx context.Context, userID, authorID int64) error {
	if userID == authorID {
		return ErrSelfSubscription
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)`,
		userID, authorID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes the subscription and reports whether one existed.
func (s *SubscriptionStore) Unsubscribe(ctx context.Context, userID, authorID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SubscribedTo returns the subset of authorIDs that userID follows.
func (s *SubscriptionStore) SubscribedTo(ctx context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return found, nil
	}
	args := append([]any{userID}, int64Args(authorIDs)...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT author_id FROM subscriptions WHERE user_id = ? AND author_id IN (`+placeholders(len(authorIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// ListAuthors returns one page of the authors userID follows, in the order
// they were followed, plus the total count.
func (s *SubscriptionStore) ListAuthors(ctx context.Context, userID int64, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at, u.updated_at
		 FROM subscriptions sub JOIN users u ON u.id = sub.author_id
		 WHERE sub.user_id = ?
		 ORDER BY sub.id ASC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribed authors: %w", err)
	}
	defer rows.Close()

	var authors []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, *u)
	}
	return authors, total, rows.Err()
}

// SubscriberIDs returns the ids of everyone following authorID.
func (s *SubscriptionStore) SubscriberIDs(ctx context.Context, authorID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM subscriptions WHERE author_id = ? ORDER BY id ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
