package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dukerupert/foodgram/internal/model"
)

// TokenTTL is how long an issued API token stays valid.
const TokenTTL = 30 * 24 * time.Hour

type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

func scanToken(scanner interface{ Scan(...any) error }) (*model.AuthToken, error) {
	var t model.AuthToken
	var expires int64
	err := scanner.Scan(&t.ID, &t.Key, &t.UserID, &expires, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ExpiresAt = time.Unix(expires, 0).UTC()
	return &t, nil
}

const tokenCols = `id, key, user_id, expires_at, created_at`

// Create issues a new 40-character hex token for the user.
func (s *TokenStore) Create(ctx context.Context, userID int64) (*model.AuthToken, error) {
	keyBytes := make([]byte, 20)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	key := hex.EncodeToString(keyBytes)
	expiresAt := s.now().UTC().Add(TokenTTL)

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (key, user_id, expires_at) VALUES (?, ?, ?)`,
		key, userID, expiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenCols+` FROM auth_tokens WHERE id = ?`, id)
	return scanToken(row)
}

// GetByKey returns the token for key, or nil if it is unknown or expired.
func (s *TokenStore) GetByKey(ctx context.Context, key string) (*model.AuthToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenCols+` FROM auth_tokens WHERE key = ? AND expires_at > ?`,
		key, s.now().UTC().Unix(),
	)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by key: %w", err)
	}
	return t, nil
}

func (s *TokenStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *TokenStore) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete tokens by user: %w", err)
	}
	return nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE expires_at <= ?`,
		s.now().UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
