package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	// provider keys the single row; one deployment talks to one provider.
	provider = "google"

	schema = `CREATE TABLE IF NOT EXISTS oauth_tokens (
	provider      TEXT PRIMARY KEY,
	refresh_token TEXT NOT NULL,
	created_at    TEXT NOT NULL
);`
)

// SQLStore keeps the token in a SQL database (sqlite by default).
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the sqlite database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("token: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and applies the schema.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("token: migrate: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Load(ctx context.Context) (string, error) {
	var rec record
	err := s.db.GetContext(ctx, &rec, `SELECT refresh_token, created_at FROM oauth_tokens WHERE provider = ?`, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("token: load: %w", err)
	}
	return rec.RefreshToken, nil
}

func (s *SQLStore) Save(ctx context.Context, refreshToken string) error {
	rec := newRecord(refreshToken, s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO oauth_tokens(provider, refresh_token, created_at) VALUES(?, ?, ?)`,
		provider, rec.RefreshToken, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("token: save: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("token: delete: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
